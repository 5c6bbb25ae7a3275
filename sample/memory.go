package sample

import "fmt"

// MemorySample is the in-process Sample backend.
//
// Values are stored without coercion and returned by reference; callers must
// not assume defensive copies. Intended for short-lived, single-process use
// and for tests.
type MemorySample struct {
	data map[string]any
}

// NewMemorySample creates an empty in-memory sample.
func NewMemorySample() *MemorySample {
	return &MemorySample{data: make(map[string]any)}
}

// GetScalar implements Sample.
func (m *MemorySample) GetScalar(key string) (*Scalar, error) {
	e, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	v, ok := e.(Scalar)
	if !ok {
		return nil, fmt.Errorf("sample: key %q holds %T: %w", key, e, ErrKindMismatch)
	}
	return &v, nil
}

// PutScalar implements Sample.
func (m *MemorySample) PutScalar(key string, v Scalar) error {
	if err := ValidateScalar(key, v); err != nil {
		return err
	}
	m.data[key] = v
	return nil
}

// GetVector implements Sample.
func (m *MemorySample) GetVector(key string) (*Vector, error) {
	e, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	v, ok := e.(*Vector)
	if !ok {
		return nil, fmt.Errorf("sample: key %q holds %T: %w", key, e, ErrKindMismatch)
	}
	return v, nil
}

// PutVector implements Sample. A nil vector is a no-op.
func (m *MemorySample) PutVector(key string, v *Vector) error {
	if v == nil {
		return nil
	}
	if err := ValidateVector(key, v); err != nil {
		return err
	}
	m.data[key] = v
	return nil
}

// GetVectorList implements Sample.
func (m *MemorySample) GetVectorList(key string) (*VectorList, error) {
	e, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	v, ok := e.(*VectorList)
	if !ok {
		return nil, fmt.Errorf("sample: key %q holds %T: %w", key, e, ErrKindMismatch)
	}
	return v, nil
}

// PutVectorList implements Sample.
func (m *MemorySample) PutVectorList(key string, v *VectorList) error {
	if v == nil {
		return nil
	}
	if err := ValidateVectorList(key, v); err != nil {
		return err
	}
	m.data[key] = v
	return nil
}

// GetArray implements Sample.
func (m *MemorySample) GetArray(key string) (*Array, error) {
	e, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	v, ok := e.(*Array)
	if !ok {
		return nil, fmt.Errorf("sample: key %q holds %T: %w", key, e, ErrKindMismatch)
	}
	return v, nil
}

// PutArray implements Sample.
func (m *MemorySample) PutArray(key string, v *Array) error {
	if v == nil {
		return nil
	}
	if err := ValidateArray(key, v); err != nil {
		return err
	}
	m.data[key] = v
	return nil
}

// GetSparse implements Sample.
func (m *MemorySample) GetSparse(key string) (*Sparse, error) {
	e, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	v, ok := e.(*Sparse)
	if !ok {
		return nil, fmt.Errorf("sample: key %q holds %T: %w", key, e, ErrKindMismatch)
	}
	return v, nil
}

// PutSparse implements Sample.
func (m *MemorySample) PutSparse(key string, v *Sparse) error {
	if v == nil {
		return nil
	}
	if err := ValidateSparse(key, v); err != nil {
		return err
	}
	m.data[key] = v
	return nil
}

// Keys returns the stored keys in unspecified order.
func (m *MemorySample) Keys() []string {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}
