package services

// Flash carries the one-line outcome message of a workflow action.
type Flash struct {
	Success string `json:"success,omitempty"`
	Note    string `json:"note,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Empty reports whether no message has been set.
func (f Flash) Empty() bool {
	return f.Success == "" && f.Note == "" && f.Error == ""
}
