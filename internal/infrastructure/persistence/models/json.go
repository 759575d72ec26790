package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONList stores a slice as a JSON array column
type JSONList[T any] []T

// Value implements driver.Valuer
func (l JSONList[T]) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]T(l))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *JSONList[T]) Scan(value any) error {
	data, err := jsonBytes(value)
	if err != nil || data == nil {
		*l = nil
		return err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to unmarshal json list: %w", err)
	}
	*l = items
	return nil
}

// NullJSON stores an optional value as a JSON object column
type NullJSON[T any] struct {
	Val *T
}

// Value implements driver.Valuer
func (n NullJSON[T]) Value() (driver.Value, error) {
	if n.Val == nil {
		return nil, nil
	}
	b, err := json.Marshal(n.Val)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json value: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (n *NullJSON[T]) Scan(value any) error {
	data, err := jsonBytes(value)
	if err != nil || data == nil {
		n.Val = nil
		return err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("failed to unmarshal json value: %w", err)
	}
	n.Val = &v
	return nil
}

func jsonBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" || v == "null" {
			return nil, nil
		}
		return []byte(v), nil
	case []byte:
		if len(v) == 0 || string(v) == "null" {
			return nil, nil
		}
		return v, nil
	}
	return nil, fmt.Errorf("unsupported json column type %T", value)
}
