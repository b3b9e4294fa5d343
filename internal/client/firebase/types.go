package firebase

// FirebaseError is the body the Realtime Database sends with non-2xx replies.
type FirebaseError struct {
	Error string `json:"error"`
}
