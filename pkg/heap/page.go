package heap

import (
	"bytes"
	"sync"

	"gopherbase/pkg/config"
	"gopherbase/pkg/dberrors"
	"gopherbase/pkg/tuple"
	"gopherbase/pkg/types"
)

// HeapPage is the in-memory representation of one on-disk page: a header
// bitmap tracking slot occupancy plus a fixed-size tuple array.
//
// Layout:
//
//	[header bitmap: ceil(numSlots/8) bytes][numSlots fixed-size tuple slots][zero padding]
//
// Bit i of the header (low bit first within each byte) is 1 iff slot i
// holds a live tuple.
type HeapPage struct {
	mu sync.RWMutex

	id        HeapPageID
	tupleDesc *tuple.TupleDescription
	tupleSize uint32
	numSlots  int
	header    []byte // ceil(numSlots/8) bytes
	slots     []*tuple.Tuple

	dirtyTid *int64 // nil when clean
	before   []byte // before-image, snapshot at load time
}

// NumSlots computes the slot count for a page of the given tuple size:
// floor((PAGE_SIZE*8) / (tupleSize*8 + 1)).
func NumSlots(tupleSize uint32) int {
	pageSize := config.Global().PageSize()
	return (pageSize * 8) / (int(tupleSize)*8 + 1)
}

// HeaderSize is ceil(numSlots/8) bytes.
func HeaderSize(numSlots int) int {
	return (numSlots + 7) / 8
}

// NewHeapPage constructs a HeapPage from a PAGE_SIZE-byte buffer by
// parsing the header bitmap and tuple slots back out.
func NewHeapPage(id HeapPageID, data []byte, td *tuple.TupleDescription) (*HeapPage, error) {
	const op = "HeapPage.New"
	pageSize := config.Global().PageSize()
	if len(data) != pageSize {
		return nil, dberrors.Newf(dberrors.IoErrorKind, op, "expected %d bytes, got %d", pageSize, len(data))
	}

	tupleSize := td.Size()
	numSlots := NumSlots(tupleSize)
	headerSize := HeaderSize(numSlots)

	hp := &HeapPage{
		id:        id,
		tupleDesc: td,
		tupleSize: tupleSize,
		numSlots:  numSlots,
		header:    append([]byte(nil), data[:headerSize]...),
		slots:     make([]*tuple.Tuple, numSlots),
		before:    append([]byte(nil), data...),
	}

	body := data[headerSize:]
	for i := 0; i < numSlots; i++ {
		start := i * int(tupleSize)
		end := start + int(tupleSize)
		if !hp.isSlotUsed(i) {
			continue
		}
		t, err := readTuple(bytes.NewReader(body[start:end]), td)
		if err != nil {
			return nil, dberrors.Wrap(err, op, "decoding slot")
		}
		t.RecordID = tuple.NewRecordID(id, i)
		hp.slots[i] = t
	}

	return hp, nil
}

// NewEmptyHeapPage builds a fresh, all-zero page for the given schema
// without reading any backing file. HeapFile.ReadPage does not use it: a
// read past the end of the file is an error.
func NewEmptyHeapPage(id HeapPageID, td *tuple.TupleDescription) (*HeapPage, error) {
	pageSize := config.Global().PageSize()
	return NewHeapPage(id, make([]byte, pageSize), td)
}

func readTuple(r *bytes.Reader, td *tuple.TupleDescription) (*tuple.Tuple, error) {
	t := tuple.NewTuple(td)
	for i := 0; i < td.NumFields(); i++ {
		ft, err := td.TypeAtIndex(i)
		if err != nil {
			return nil, err
		}
		f, err := types.ParseField(r, ft)
		if err != nil {
			return nil, err
		}
		if err := t.SetField(i, f); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// GetID returns this page's identity.
func (hp *HeapPage) GetID() HeapPageID { return hp.id }

// GetTupleDesc returns the schema tuples on this page conform to.
func (hp *HeapPage) GetTupleDesc() *tuple.TupleDescription { return hp.tupleDesc }

func (hp *HeapPage) bitSet(i int) bool {
	byteIdx := i / 8
	bitIdx := uint(i % 8)
	return hp.header[byteIdx]&(1<<bitIdx) != 0
}

func (hp *HeapPage) setBit(i int, used bool) {
	byteIdx := i / 8
	bitIdx := uint(i % 8)
	if used {
		hp.header[byteIdx] |= 1 << bitIdx
	} else {
		hp.header[byteIdx] &^= 1 << bitIdx
	}
}

// IsSlotUsed reports whether slot i currently holds a live tuple.
func (hp *HeapPage) IsSlotUsed(i int) bool {
	hp.mu.RLock()
	defer hp.mu.RUnlock()
	return hp.isSlotUsed(i)
}

func (hp *HeapPage) isSlotUsed(i int) bool {
	return hp.bitSet(i)
}

// MarkSlotUsed sets slot i's occupancy bit directly. Exposed for tests
// exercising the bitmap invariants in isolation.
func (hp *HeapPage) MarkSlotUsed(i int, used bool) {
	hp.mu.Lock()
	defer hp.mu.Unlock()
	hp.setBit(i, used)
}

// GetNumEmptySlots counts header bits equal to 0.
func (hp *HeapPage) GetNumEmptySlots() int {
	hp.mu.RLock()
	defer hp.mu.RUnlock()
	empty := 0
	for i := 0; i < hp.numSlots; i++ {
		if !hp.bitSet(i) {
			empty++
		}
	}
	return empty
}

// IterateTuples returns a snapshot of live tuples in slot-ascending
// order. The result is finite and safe to iterate repeatedly; the scan
// is restartable by calling again.
func (hp *HeapPage) IterateTuples() []*tuple.Tuple {
	hp.mu.RLock()
	defer hp.mu.RUnlock()

	out := make([]*tuple.Tuple, 0, hp.numSlots-hp.countEmpty())
	for i := 0; i < hp.numSlots; i++ {
		if hp.bitSet(i) && hp.slots[i] != nil {
			out = append(out, hp.slots[i])
		}
	}
	return out
}

func (hp *HeapPage) countEmpty() int {
	empty := 0
	for i := 0; i < hp.numSlots; i++ {
		if !hp.bitSet(i) {
			empty++
		}
	}
	return empty
}

// InsertTuple finds the lowest-index unused slot and places t there,
// marking the page dirty under tid.
func (hp *HeapPage) InsertTuple(t *tuple.Tuple, tid int64) error {
	const op = "HeapPage.InsertTuple"
	hp.mu.Lock()
	defer hp.mu.Unlock()

	if !t.TupleDesc.Equals(hp.tupleDesc) {
		return dberrors.New(dberrors.DbErrorKind, op, "tuple schema does not match page schema")
	}

	slot := -1
	for i := 0; i < hp.numSlots; i++ {
		if !hp.bitSet(i) {
			slot = i
			break
		}
	}
	if slot == -1 {
		return dberrors.New(dberrors.DbErrorKind, op, "no empty slot on page")
	}

	hp.slots[slot] = t
	hp.setBit(slot, true)
	t.RecordID = tuple.NewRecordID(hp.id, slot)
	hp.markDirtyLocked(true, &tid)
	return nil
}

// DeleteTuple clears the slot t was read from, marking the page dirty
// under tid.
func (hp *HeapPage) DeleteTuple(t *tuple.Tuple, tid int64) error {
	const op = "HeapPage.DeleteTuple"
	hp.mu.Lock()
	defer hp.mu.Unlock()

	if t.RecordID == nil {
		return dberrors.New(dberrors.DbErrorKind, op, "tuple has no RecordID")
	}
	if !t.RecordID.PageID.Equals(hp.id) {
		return dberrors.New(dberrors.DbErrorKind, op, "tuple is not on this page")
	}

	slot := t.RecordID.Slot
	if slot < 0 || slot >= hp.numSlots || !hp.bitSet(slot) {
		return dberrors.New(dberrors.DbErrorKind, op, "slot is not currently used")
	}

	hp.slots[slot] = nil
	hp.setBit(slot, false)
	t.RecordID = nil
	hp.markDirtyLocked(true, &tid)
	return nil
}

// MarkDirty sets or clears the dirty flag and dirtier transaction id.
func (hp *HeapPage) MarkDirty(dirty bool, tid *int64) {
	hp.mu.Lock()
	defer hp.mu.Unlock()
	hp.markDirtyLocked(dirty, tid)
}

func (hp *HeapPage) markDirtyLocked(dirty bool, tid *int64) {
	if dirty {
		hp.dirtyTid = tid
	} else {
		hp.dirtyTid = nil
	}
}

// IsDirty returns the transaction id that dirtied this page, or nil if clean.
func (hp *HeapPage) IsDirty() *int64 {
	hp.mu.RLock()
	defer hp.mu.RUnlock()
	return hp.dirtyTid
}

// GetPageData serializes the page back to PAGE_SIZE bytes: header, then
// slots in order, then zero padding.
func (hp *HeapPage) GetPageData() []byte {
	hp.mu.RLock()
	defer hp.mu.RUnlock()

	pageSize := config.Global().PageSize()
	out := make([]byte, pageSize)
	headerSize := HeaderSize(hp.numSlots)
	copy(out, hp.header)

	body := out[headerSize:]
	for i := 0; i < hp.numSlots; i++ {
		start := i * int(hp.tupleSize)
		end := start + int(hp.tupleSize)
		if !hp.bitSet(i) || hp.slots[i] == nil {
			continue // zero slot, left as zero bytes
		}
		buf := bytes.NewBuffer(body[start:start])
		for f := 0; f < hp.tupleDesc.NumFields(); f++ {
			field, _ := hp.slots[i].Field(f)
			if field != nil {
				_ = field.Serialize(buf)
			}
		}
		copy(body[start:end], buf.Bytes())
	}
	return out
}

// GetBeforeImage returns a page reflecting content at load time, used by
// the (unimplemented) recovery hooks.
func (hp *HeapPage) GetBeforeImage() *HeapPage {
	hp.mu.RLock()
	before := append([]byte(nil), hp.before...)
	hp.mu.RUnlock()
	beforePage, _ := NewHeapPage(hp.id, before, hp.tupleDesc)
	return beforePage
}

// SetBeforeImage snapshots the current serialized state as the new
// before-image. Nothing in this module calls it.
func (hp *HeapPage) SetBeforeImage() {
	data := hp.GetPageData()
	hp.mu.Lock()
	hp.before = data
	hp.mu.Unlock()
}
