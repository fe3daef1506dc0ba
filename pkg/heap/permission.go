package heap

// Permission is the access intent a caller declares when fetching a page
// through a PageStore's `get_page(tid, pid, perm)`.
type Permission int

const (
	ReadOnly Permission = iota
	ReadWrite
)
