package vm

// loader.go holds an object loader.

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cleardata/elsie16/internal/log"
)

// Loader takes object code and loads it into the machine's memory.
type Loader struct {
	vm  *LC3
	log *log.Logger
}

// NewLoader creates a new object loader.
func NewLoader(vm *LC3) *Loader {
	logger := log.DefaultLogger()

	return &Loader{
		vm:  vm,
		log: logger,
	}
}

// Load loads the object code starting at its origin address. The object must fit in the space
// between the origin and the top of the address space; a program whose last word lands exactly at
// 0xffff loads, one word longer does not.
func (l *Loader) Load(obj ObjectCode) (uint16, error) {
	if len(obj.Code) == 0 {
		return 0, fmt.Errorf("%w: object too small", ErrObjectLoader)
	}

	if space := 0x1_0000 - uint32(obj.Orig); uint32(len(obj.Code)) > space {
		return 0, fmt.Errorf("%w: object overflows address space: orig: %s, len: %d",
			ErrObjectLoader, obj.Orig, len(obj.Code))
	}

	var (
		addr  = obj.Orig
		count = uint16(0)
	)

	for _, code := range obj.Code {
		err := l.vm.Mem.store(addr, code)

		if err != nil {
			return count, fmt.Errorf("%w: %w", ErrObjectLoader, err)
		}

		count++
		addr++
	}

	return count, nil
}

// LoadAll loads every segment in sequence, returning the total word count written.
func (l *Loader) LoadAll(segs []ObjectCode) (uint16, error) {
	var total uint16

	for _, seg := range segs {
		count, err := l.Load(seg)
		total += count

		if err != nil {
			return total, err
		}
	}

	return total, nil
}

// LoadBytes decodes a raw object-file buffer -- origin word followed by code words, as produced by
// asm.Generator.WriteTo -- and loads it. The wire format has no segment delimiter, so a buffer
// holding more than one concatenated segment cannot be split unambiguously; callers assembling
// multi-segment sources should instead load the structured segments asm.Generator.Segments
// produces with LoadAll.
func (l *Loader) LoadBytes(data []byte) (uint16, error) {
	obj, err := DecodeObject(data)
	if err != nil {
		return 0, err
	}

	return l.Load(obj)
}

// LoadVector stores the object and sets the vector-table entry to the object's origin address.
func (l *Loader) LoadVector(vector Word, obj ObjectCode) (uint16, error) {
	l.log.Debug("Loading vector", "vec", vector, "obj", obj)

	if count, err := l.Load(obj); err != nil {
		return count, err
	} else if err = l.vm.Mem.store(vector, obj.Orig); err != nil {
		return count, fmt.Errorf("%w: %w", ErrObjectLoader, err)
	} else {
		return count, nil
	}
}

// ObjectCode is a data structure that holds code and its origin offset in memory. Code may be
// comprised of either instructions or data.
type ObjectCode struct {
	Orig Word
	Code []Word
}

// DecodeObject parses a raw object-file buffer -- origin word followed by code words -- into an
// ObjectCode without loading it into any machine's memory.
func DecodeObject(b []byte) (ObjectCode, error) {
	var obj ObjectCode
	_, err := obj.read(b)

	return obj, err
}

// Read loads an object from bytes.
func (obj *ObjectCode) read(b []byte) (int, error) {
	var count int

	if len(b) < 2 {
		return 0, fmt.Errorf("%w: object code too small", ErrObjectLoader)
	}

	in := bytes.NewReader(b)
	err := binary.Read(in, binary.BigEndian, &obj.Orig)

	if err != nil {
		return count, fmt.Errorf("%w: %w", ErrObjectLoader, err)
	}

	count += 2

	obj.Code = make([]Word, len(b)/2-1)
	err = binary.Read(in, binary.BigEndian, obj.Code)

	if err != nil {
		return count, fmt.Errorf("%w: %w", ErrObjectLoader, err)
	}

	count += len(obj.Code) * 2

	return count, nil
}

var ErrObjectLoader = errors.New("loader error")
