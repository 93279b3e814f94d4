package database

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// -----------------------------------------------------------------------------
// Reflection-Based SQL Scanner
// -----------------------------------------------------------------------------
// `db:"column"` tag'lerine göre satırları struct'lara tarar. Gömülü (embedded)
// struct'lar (örn. models.BaseModel) düzleştirilir. `db:"-"` alanlar atlanır.
//
// Tip başına alan haritası bir kez çıkarılır ve saklanır; model tipleri sabit
// ve sınırlı sayıda olduğu için cache temizliğine gerek yoktur.
// -----------------------------------------------------------------------------

// fieldIndex, kolon adı → reflect field index yolu.
type fieldIndex map[string][]int

var fieldIndexCache sync.Map // reflect.Type → fieldIndex

func fieldsOf(t reflect.Type) fieldIndex {
	if cached, ok := fieldIndexCache.Load(t); ok {
		return cached.(fieldIndex)
	}
	idx := make(fieldIndex)
	collectFields(t, nil, idx)
	actual, _ := fieldIndexCache.LoadOrStore(t, idx)
	return actual.(fieldIndex)
}

func collectFields(t reflect.Type, parent []int, idx fieldIndex) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		path := append(append([]int{}, parent...), i)

		tag := f.Tag.Get("db")
		if tag == "-" {
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct && tag == "" {
			collectFields(f.Type, path, idx)
			continue
		}
		if !f.IsExported() {
			continue
		}

		name := strings.Split(tag, ",")[0]
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		// Dış struct'taki alan gömülü struct'takini gölgeler.
		if existing, ok := idx[name]; ok && len(existing) <= len(path) {
			continue
		}
		idx[name] = path
	}
}

// ScanStruct, *sql.Rows'un mevcut satırını dest struct pointer'ına tarar.
// rows.Next() çağrısı çağırana aittir.
func ScanStruct(rows *sql.Rows, dest any) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("scan: dest must be a non-nil pointer to struct, got %T", dest)
	}
	elem := v.Elem()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	fields := fieldsOf(elem.Type())
	targets := make([]any, len(columns))
	for i, col := range columns {
		path, ok := fields[strings.ToLower(col)]
		if !ok {
			targets[i] = new(any)
			continue
		}
		targets[i] = elem.FieldByIndex(path).Addr().Interface()
	}

	if err := rows.Scan(targets...); err != nil {
		return fmt.Errorf("scan %s: %w", elem.Type().Name(), err)
	}
	return nil
}

// ScanSlice, tüm sonuç kümesini dest'e tarar. dest *[]T ya da *[]*T olabilir.
func ScanSlice(rows *sql.Rows, dest any) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("scan: dest must be a pointer to slice, got %T", dest)
	}
	slice := v.Elem()
	elemType := slice.Type().Elem()

	isPtr := elemType.Kind() == reflect.Ptr
	structType := elemType
	if isPtr {
		structType = elemType.Elem()
	}
	if structType.Kind() != reflect.Struct {
		return fmt.Errorf("scan: slice element must be a struct, got %s", elemType)
	}

	for rows.Next() {
		item := reflect.New(structType)
		if err := ScanStruct(rows, item.Interface()); err != nil {
			return err
		}
		if isPtr {
			slice.Set(reflect.Append(slice, item))
		} else {
			slice.Set(reflect.Append(slice, item.Elem()))
		}
	}
	return rows.Err()
}
