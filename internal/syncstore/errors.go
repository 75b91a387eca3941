package syncstore

import "errors"

var (
	// ErrNotFound indicates the referenced entity is not in the collection.
	ErrNotFound = errors.New("not found")
	// ErrOfflineUpload indicates a file upload was attempted while the
	// remote API is unreachable. Uploads are rejected before any network
	// attempt in that case.
	ErrOfflineUpload = errors.New("il caricamento file non è disponibile offline")
	// ErrOfflineLogin indicates login credentials could not be verified
	// against any locally known account while offline.
	ErrOfflineLogin = errors.New("credenziali non valide (modalità offline)")
)
