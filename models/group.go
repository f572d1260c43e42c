//go:generate reform
package models

import "time"

//reform:public.groups
type Group struct {
	ID         int64     `json:"id" reform:"id,pk"`
	Name       string    `json:"name" reform:"name" validate:"required,max=255"`
	RecordType string    `json:"record_type" reform:"record_type" validate:"required"`
	CreatedAt  time.Time `json:"created_at" reform:"created_at"`
}

func (g *Group) BeforeInsert() error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	return nil
}

//reform:public.memberships
type Membership struct {
	ID         int64     `json:"id" reform:"id,pk"`
	GroupID    int64     `json:"group_id" reform:"group_id" validate:"required"`
	MemberType string    `json:"member_type" reform:"member_type" validate:"required"`
	MemberID   int64     `json:"member_id" reform:"member_id"`
	CreatedAt  time.Time `json:"created_at" reform:"created_at"`
}

func (m *Membership) BeforeInsert() error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return nil
}
