package task

import (
	"errors"
	"strings"
)

var ErrInvalidOrdering = errors.New("invalid ordering field")

// orderableFields is the allow-list for the order_by query parameter.
// Anything else is rejected rather than silently ignored so the raw
// value can never reach the SQL builder.
var orderableFields = map[string]bool{
	"created_at":   true,
	"completed_at": true,
	"due_at":       true,
	"completed":    true,
}

type Ordering struct {
	Field string
	Desc  bool
}

// ParseOrdering validates an order_by value. A leading "-" requests
// descending order. The empty string falls back to created_at.
func ParseOrdering(raw string) (Ordering, error) {
	if raw == "" {
		return Ordering{Field: "created_at"}, nil
	}

	field, desc := raw, false
	if strings.HasPrefix(raw, "-") {
		field, desc = raw[1:], true
	}
	if !orderableFields[field] {
		return Ordering{}, ErrInvalidOrdering
	}

	return Ordering{Field: field, Desc: desc}, nil
}

// SQL renders the validated ordering as an ORDER BY expression.
func (o Ordering) SQL() string {
	if o.Desc {
		return o.Field + " DESC"
	}
	return o.Field + " ASC"
}
