package model

import "time"

// ScanSession is a stored scan so that a later apply can refer to it by ID
// instead of round-tripping every replacement through the client.
type ScanSession struct {
	ID                 string        `json:"id"`
	ProjectRoot        string        `json:"projectRoot"`
	TotalFound         int           `json:"totalFound"`
	ComponentsAffected int           `json:"componentsAffected"`
	Replacements       []Replacement `json:"replacements"`
	CreatedAt          time.Time     `json:"createdAt"`
	AppliedAt          *time.Time    `json:"appliedAt,omitempty"`
}

// Principal is the authenticated caller of an admin route.
type Principal struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}
