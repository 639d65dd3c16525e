package auth

import "stash/internal/database"

// Anonymous is the viewer id used for requests with no resolvable session.
const Anonymous int64 = 0

// CanRead reports whether viewer may read f: public files are readable by
// anyone, private files only by their owner.
func CanRead(viewer int64, f *database.File) bool {
	return f.IsPublic || (viewer != Anonymous && viewer == f.UserID)
}

// CanWrite reports whether viewer may modify f. Public visibility never
// grants write access.
func CanWrite(viewer int64, f *database.File) bool {
	return viewer != Anonymous && viewer == f.UserID
}
