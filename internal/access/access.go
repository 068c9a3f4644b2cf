// Package access implements the privacy-by-construction core: a resource
// handle can only exist after an ownership or collaboration lookup sealed it
// with the proven level, and every mutation path has to pass through a grant
// obtained from that handle.
package access

import (
	appErr "github.com/shelfmark/shelfmark/internal/pkg/errors"
)

// Level is the proven access class for one caller on one resource.
// Public sits below Viewer: it reads like a viewer but carries a flag that
// forces owner-only fields to be hidden in projections.
type Level int

const (
	LevelPublic Level = iota
	LevelViewer
	LevelEditor
	LevelOwner
)

func (l Level) String() string {
	switch l {
	case LevelPublic:
		return "public"
	case LevelViewer:
		return "viewer"
	case LevelEditor:
		return "editor"
	case LevelOwner:
		return "owner"
	}
	return "unknown"
}

func (l Level) AtLeast(other Level) bool {
	return l >= other
}

// ParseRole accepts the two roles a collaborator may hold. Owner is not a
// grantable role; it exists only through the ownership row itself.
func ParseRole(s string) (Level, error) {
	switch s {
	case "viewer":
		return LevelViewer, nil
	case "editor":
		return LevelEditor, nil
	}
	return 0, appErr.ErrInvalid
}

// Verified binds a payload to the caller it was resolved for and the level
// that resolution proved. All fields are unexported: outside this package the
// only way to obtain one is Seal, and the only callers of Seal are the
// storage-backed resource factories.
type Verified[T any] struct {
	callerID   string
	resourceID string
	level      Level
	data       T
}

// Seal is the single constructor. It must only be invoked after the access
// check for (callerID, resourceID) has executed; the factories in the service
// layer are its only call sites.
func Seal[T any](callerID, resourceID string, data T, level Level) Verified[T] {
	return Verified[T]{callerID: callerID, resourceID: resourceID, level: level, data: data}
}

func (v Verified[T]) Data() T            { return v.data }
func (v Verified[T]) CallerID() string   { return v.callerID }
func (v Verified[T]) ResourceID() string { return v.resourceID }
func (v Verified[T]) Level() Level       { return v.level }

func (v Verified[T]) IsOwner() bool  { return v.level.AtLeast(LevelOwner) }
func (v Verified[T]) IsEditor() bool { return v.level.AtLeast(LevelEditor) }
func (v Verified[T]) IsViewer() bool { return v.level.AtLeast(LevelViewer) }

// Public reports whether the handle came through the token/public read path
// rather than an authenticated role.
func (v Verified[T]) Public() bool { return v.level == LevelPublic }

// OwnerGrant proves ownership of one specific resource. The zero value holds
// an empty resource id and so can never authorize anything: a mutation method
// handed a forged grant fails its id match immediately.
type OwnerGrant struct {
	callerID   string
	resourceID string
}

func (g OwnerGrant) CallerID() string   { return g.callerID }
func (g OwnerGrant) ResourceID() string { return g.resourceID }

// Editor widens an owner grant; owner subsumes editor.
func (g OwnerGrant) Editor() EditorGrant {
	return EditorGrant{callerID: g.callerID, resourceID: g.resourceID}
}

// EditorGrant proves at-least-editor access to one specific resource.
type EditorGrant struct {
	callerID   string
	resourceID string
}

func (g EditorGrant) CallerID() string   { return g.callerID }
func (g EditorGrant) ResourceID() string { return g.resourceID }

// RequireOwner narrows the handle to an owner capability or fails with
// Forbidden. This is the choke point for every owner-level mutation.
func (v Verified[T]) RequireOwner() (OwnerGrant, error) {
	if !v.level.AtLeast(LevelOwner) {
		return OwnerGrant{}, appErr.ErrForbidden
	}
	return OwnerGrant{callerID: v.callerID, resourceID: v.resourceID}, nil
}

// RequireEditor narrows the handle to an editor capability or fails with
// Forbidden.
func (v Verified[T]) RequireEditor() (EditorGrant, error) {
	if !v.level.AtLeast(LevelEditor) {
		return EditorGrant{}, appErr.ErrForbidden
	}
	return EditorGrant{callerID: v.callerID, resourceID: v.resourceID}, nil
}
