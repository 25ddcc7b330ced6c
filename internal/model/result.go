package model

// Result is the normalized outcome of a vendor call.
// It is the only shape adapters return.
type Result struct {
	Success       bool      `json:"success"`
	InvoiceNumber string    `json:"invoice_number,omitempty"`
	RandomNumber  string    `json:"random_number,omitempty"`
	CreateTime    string    `json:"create_time,omitempty"`
	Error         string    `json:"error,omitempty"`
	Kind          ErrorKind `json:"kind,omitempty"`
}

// Aborted reports whether the call was cancelled by the caller
func (r Result) Aborted() bool {
	return r.Kind == KindAborted
}

// ResultFromError converts err into a failed result
func ResultFromError(err error) Result {
	return Result{
		Success: false,
		Error:   Message(err),
		Kind:    KindOf(err),
	}
}

// Failure builds a failed result of the given kind
func Failure(kind ErrorKind, message string) Result {
	return Result{Success: false, Error: message, Kind: kind}
}
