// Command agencyctl is a terminal client for the agency backend. It drives
// the same dual-mode store the dashboard uses: when the backend is down it
// works against the latest local snapshots and records changes offline.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"talenthub/internal/apiclient"
	"talenthub/internal/snapshot"
	"talenthub/internal/syncstore"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: loading .env: %v", err)
	}

	serverURL := flag.String("server", envOr("AGENCY_SERVER_URL", "http://localhost:8080"), "backend base URL")
	dataDir := flag.String("data", envOr("AGENCY_DATA_DIR", defaultDataDir()), "local snapshot directory")
	username := flag.String("user", os.Getenv("AGENCY_USERNAME"), "username for login")
	password := flag.String("pass", os.Getenv("AGENCY_PASSWORD"), "password for login")
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	snap, err := snapshot.New(*dataDir)
	if err != nil {
		log.Fatalf("init snapshot store: %v", err)
	}
	store := syncstore.New(apiclient.NewClient(*serverURL), snap)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.Load(ctx); err != nil {
		log.Fatalf("load store: %v", err)
	}

	switch flag.Arg(0) {
	case "status":
		printStatus(store)
	case "login":
		if *username == "" || *password == "" {
			log.Fatal("login requires -user and -pass (or AGENCY_USERNAME/AGENCY_PASSWORD)")
		}
		session, err := store.Login(ctx, *username, *password)
		if err != nil {
			log.Fatalf("login: %v", err)
		}
		fmt.Printf("logged in as %s (%s)\n", session.User.Username, session.User.Role)
	case "logout":
		if err := store.Logout(ctx); err != nil {
			log.Fatalf("logout: %v", err)
		}
		fmt.Println("logged out")
	case "talents":
		w := newTable()
		fmt.Fprintln(w, "ID\tNAME\tSTATUS")
		for _, t := range store.Talents() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Name, t.Status)
		}
		w.Flush()
	case "brands":
		w := newTable()
		fmt.Fprintln(w, "ID\tNAME\tCONTACT")
		for _, b := range store.Brands() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", b.ID, b.Name, b.ContactName)
		}
		w.Flush()
	case "campaigns":
		w := newTable()
		fmt.Fprintln(w, "ID\tNAME\tBRAND\tBUDGET\tSTATUS")
		for _, c := range store.Campaigns() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n", c.ID, c.Name, c.BrandName, c.TotalBudget, c.Status)
		}
		w.Flush()
	case "collaborations":
		w := newTable()
		fmt.Fprintln(w, "ID\tCAMPAIGN\tTALENT\tFEE\tPAID\tPAYMENT")
		for _, c := range store.Collaborations() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%s\n", c.ID, c.CampaignID, c.TalentID, c.Fee, c.PaidAmount, c.PaymentStatus)
		}
		w.Flush()
	case "appointments":
		w := newTable()
		fmt.Fprintln(w, "ID\tTALENT\tTYPE\tDATE\tSTATUS")
		for _, a := range store.Appointments() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.TalentID, a.Type, a.Date.Format("2006-01-02"), a.Status)
		}
		w.Flush()
	case "analytics":
		summary, err := store.AnalyticsSummary(ctx)
		if err != nil {
			log.Fatalf("analytics: %v", err)
		}
		fmt.Printf("fatturato:        %.2f\n", summary.Fatturato)
		fmt.Printf("pagamenti talent: %.2f\n", summary.PagamentiTalent)
		fmt.Printf("costi extra:      %.2f\n", summary.CostiExtra)
		fmt.Printf("incassato:        %.2f\n", summary.Incassato)
		fmt.Printf("utile:            %.2f\n", summary.Utile)
		fmt.Printf("margine:          %.1f%%\n", summary.MarginPercentage)
	case "notifications":
		w := newTable()
		fmt.Fprintln(w, "WHEN\tSEVERITY\tMESSAGE")
		for _, n := range store.Notifications() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", n.CreatedAt.Format("15:04:05"), n.Severity, n.Message)
		}
		w.Flush()
	case "upload":
		runUpload(ctx, store, flag.Args()[1:])
	default:
		usage()
		os.Exit(2)
	}
}

func runUpload(ctx context.Context, store *syncstore.Store, args []string) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	talentID := fs.String("talent", "", "talent ID")
	category := fs.String("category", "gallery", "gallery, attachment or profile-photo")
	path := fs.String("file", "", "path of file to upload")
	fs.Parse(args)
	if *talentID == "" || *path == "" {
		log.Fatal("upload requires -talent and -file")
	}
	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("open file: %v", err)
	}
	defer f.Close()
	talent, err := store.UploadTalentFile(ctx, *talentID, syncstore.FileCategory(*category), filepath.Base(*path), f)
	if err != nil {
		log.Fatalf("upload: %v", err)
	}
	fmt.Printf("uploaded for %s (%d gallery, %d attachments)\n", talent.Name, len(talent.Gallery), len(talent.Attachments))
}

func printStatus(store *syncstore.Store) {
	mode := "offline"
	if store.Online() {
		mode = "online"
	}
	fmt.Printf("mode: %s\n", mode)
	if session, ok := store.Session(); ok {
		fmt.Printf("user: %s (%s)\n", session.User.Username, session.User.Role)
	} else {
		fmt.Println("user: not logged in")
	}
	fmt.Printf("talents: %d, brands: %d, campaigns: %d, collaborations: %d, appointments: %d\n",
		len(store.Talents()), len(store.Brands()), len(store.Campaigns()),
		len(store.Collaborations()), len(store.Appointments()))
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agencyctl"
	}
	return filepath.Join(home, ".agencyctl")
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: agencyctl [flags] <command>

commands:
  status          show connection mode and collection counts
  login           authenticate (flags -user, -pass)
  logout          end the current session
  talents         list talents
  brands          list brands
  campaigns       list campaigns
  collaborations  list collaborations
  appointments    list appointments
  analytics       print the financial summary
  notifications   list mutation notifications
  upload          upload a talent file (-talent, -category, -file)`)
	flag.PrintDefaults()
}
