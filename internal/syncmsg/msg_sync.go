package syncmsg

// FileChange is a changed file uploaded in a sync request.
// Contents are set for create/edit and empty for delete.
type FileChange struct {
	Filename string `json:"filename"`
	Version  uint64 `json:"version"`
	Hash     string `json:"hash"`
	Action   Action `json:"action"`
	Contents []byte `json:"contents"`
}

// SummaryEntry is the compact view of one tracked file the client knows about
type SummaryEntry struct {
	Filename string `json:"filename"`
	Hash     string `json:"hash"`
	Version  uint64 `json:"version"`
}

// SyncRequest is the body of POST /sync
type SyncRequest struct {
	Files   []*FileChange   `json:"files"`
	Summary []*SummaryEntry `json:"summary"`
}

// Directive is the remote's authoritative decision for one file
type Directive struct {
	Filename string `json:"filename"`
	Action   Action `json:"action"`
	Version  uint64 `json:"version"`
	Contents []byte `json:"contents"`
}

// SyncResponse is the body returned by POST /sync
type SyncResponse []*Directive

func NewDeleteDirective(filename string, version uint64) *Directive {
	return &Directive{
		Filename: filename,
		Action:   ActionDelete,
		Version:  version,
	}
}

func NewWriteDirective(action Action, filename string, version uint64, contents []byte) *Directive {
	if contents == nil {
		contents = []byte{}
	}
	return &Directive{
		Filename: filename,
		Action:   action,
		Version:  version,
		Contents: contents,
	}
}

// PayloadSize is the total number of content bytes carried by the request
func (r *SyncRequest) PayloadSize() int {
	total := 0
	for _, f := range r.Files {
		total += len(f.Contents)
	}
	return total
}
