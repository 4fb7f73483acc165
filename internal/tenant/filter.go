package tenant

import "gorm.io/gorm"

// Filter selects which organizations a cross-cutting read covers. The zero
// Filter is invalid: callers must say In(scope) or AllOrganizations().
type Filter struct {
	scope Scope
	all   bool
}

func In(scope Scope) Filter {
	return Filter{scope: scope}
}

// AllOrganizations spans every organization the subject belongs to. Only
// identity-level reads (a profile's own assignment history) use it.
func AllOrganizations() Filter {
	return Filter{all: true}
}

func (f Filter) Scope() (Scope, bool) {
	if f.all || f.scope.IsZero() {
		return Scope{}, false
	}
	return f.scope, true
}

func (f Filter) Valid() bool {
	return f.all || !f.scope.IsZero()
}

func (f Filter) Apply(db *gorm.DB) *gorm.DB {
	return f.ApplyColumn(db, organizationColumn)
}

func (f Filter) ApplyColumn(db *gorm.DB, column string) *gorm.DB {
	if f.all {
		return db
	}
	if f.scope.IsZero() {
		return poisoned(db)
	}
	return f.scope.ApplyColumn(db, column)
}
