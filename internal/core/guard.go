package core

import (
	"errors"
	"strings"
)

// Category lifecycle rules. These are pure predicates: a nil return means
// the mutation is allowed, a non-nil error carries the human-readable
// refusal reason. Executing the mutation is the caller's job.

var (
	ErrEmptyCategoryName     = errors.New("category name cannot be empty")
	ErrCategoryNameTaken     = errors.New("category name already exists")
	ErrDefaultCategoryRename = errors.New("cannot rename a default category")
	ErrDefaultCategoryDelete = errors.New("cannot delete a default category")
	ErrCategoryHasExpenses   = errors.New("cannot delete a category with existing expenses")
)

// CanCreate checks whether a category with the given name may be created.
// Names are compared case-insensitively against the existing registry.
func CanCreate(name string, all []Category) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyCategoryName
	}
	for _, c := range all {
		if strings.EqualFold(c.Name, name) {
			return ErrCategoryNameTaken
		}
	}
	return nil
}

// CanRename checks whether cat may take newName. Default category names are
// immutable; the new name must not collide case-insensitively with any other
// category. Renaming a category to its own name is a no-op and allowed.
func CanRename(cat Category, newName string, all []Category) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrEmptyCategoryName
	}
	if strings.EqualFold(cat.Name, newName) {
		return nil
	}
	if cat.IsDefault {
		return ErrDefaultCategoryRename
	}
	for _, c := range all {
		if c.ID == cat.ID {
			continue
		}
		if strings.EqualFold(c.Name, newName) {
			return ErrCategoryNameTaken
		}
	}
	return nil
}

// CanDelete checks whether cat may be deleted given the number of expenses
// currently referencing it. Default categories can never be deleted.
func CanDelete(cat Category, expenseCount int64) error {
	if cat.IsDefault {
		return ErrDefaultCategoryDelete
	}
	if expenseCount > 0 {
		return ErrCategoryHasExpenses
	}
	return nil
}
