// Package toggle describes the result of flipping a fact record.
package toggle

type Action string

const (
	Added   Action = "added"
	Removed Action = "removed"
)

type Result struct {
	Action Action `json:"action"`
}
