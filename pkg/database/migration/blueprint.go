package migration

import "fmt"

// -----------------------------------------------------------------------------
// Blueprint - Table Schema Builder
// -----------------------------------------------------------------------------

// ColumnType, dialect'ten bağımsız kolon tipi. Her Grammar kendi SQL tipine
// çevirir.
type ColumnType string

const (
	ColumnTypeID        ColumnType = "id"
	ColumnTypeString    ColumnType = "string"
	ColumnTypeText      ColumnType = "text"
	ColumnTypeInteger   ColumnType = "integer"
	ColumnTypeBigInt    ColumnType = "bigint"
	ColumnTypeBoolean   ColumnType = "boolean"
	ColumnTypeTimestamp ColumnType = "timestamp"
	ColumnTypeDecimal   ColumnType = "decimal"
)

// Expr, DEFAULT için tırnaklanmadan yazılacak ham SQL ifadesi.
type Expr string

// CurrentTimestamp, her iki dialect'te de geçerli DEFAULT ifadesi.
const CurrentTimestamp Expr = "CURRENT_TIMESTAMP"

// Column, bir tablo kolonu.
type Column struct {
	Name          string
	Type          ColumnType
	Length        int
	Precision     int
	Scale         int
	IsNullable    bool
	DefaultValue  interface{}
	IsUnsigned    bool
	AutoIncrement bool
	Primary       bool
	IsUnique      bool
}

// Nullable marks the column as nullable.
func (c *Column) Nullable() *Column {
	c.IsNullable = true
	return c
}

// Default sets a default value. Use Expr for raw SQL.
func (c *Column) Default(value interface{}) *Column {
	c.DefaultValue = value
	return c
}

// Unsigned marks a numeric column as unsigned. Ignored by SQLite.
func (c *Column) Unsigned() *Column {
	c.IsUnsigned = true
	return c
}

// Unique adds a single-column unique constraint.
func (c *Column) Unique() *Column {
	c.IsUnique = true
	return c
}

// PrimaryKey marks the column as the table's primary key without
// auto-increment.
func (c *Column) PrimaryKey() *Column {
	c.Primary = true
	return c
}

// IndexType represents the type of index.
type IndexType string

const (
	IndexTypeIndex  IndexType = "INDEX"
	IndexTypeUnique IndexType = "UNIQUE"
)

// Index represents a table index.
type Index struct {
	Name    string
	Columns []string
	Type    IndexType
}

// ForeignKey represents a foreign key constraint.
type ForeignKey struct {
	Column           string
	ReferencedTable  string
	ReferencedColumn string
	OnDeleteAction   string
}

// References sets the referenced column.
func (fk *ForeignKey) References(column string) *ForeignKey {
	fk.ReferencedColumn = column
	return fk
}

// On sets the referenced table.
func (fk *ForeignKey) On(table string) *ForeignKey {
	fk.ReferencedTable = table
	return fk
}

// OnDelete sets the ON DELETE action (CASCADE, RESTRICT, SET NULL).
func (fk *ForeignKey) OnDelete(action string) *ForeignKey {
	fk.OnDeleteAction = action
	return fk
}

// Blueprint defines the structure of a table.
type Blueprint struct {
	table       string
	columns     []*Column
	indexes     []Index
	foreignKeys []*ForeignKey
}

// NewBlueprint creates a new Blueprint instance.
func NewBlueprint(table string) *Blueprint {
	return &Blueprint{table: table}
}

func (b *Blueprint) Table() string              { return b.table }
func (b *Blueprint) Columns() []*Column         { return b.columns }
func (b *Blueprint) Indexes() []Index           { return b.indexes }
func (b *Blueprint) ForeignKeys() []*ForeignKey { return b.foreignKeys }

// ID adds an auto-increment unsigned big integer primary key named "id".
func (b *Blueprint) ID() *Column {
	return b.addColumn(&Column{Name: "id", Type: ColumnTypeID, IsUnsigned: true, AutoIncrement: true, Primary: true})
}

func (b *Blueprint) String(name string, length int) *Column {
	return b.addColumn(&Column{Name: name, Type: ColumnTypeString, Length: length})
}

func (b *Blueprint) Text(name string) *Column {
	return b.addColumn(&Column{Name: name, Type: ColumnTypeText})
}

func (b *Blueprint) Integer(name string) *Column {
	return b.addColumn(&Column{Name: name, Type: ColumnTypeInteger})
}

func (b *Blueprint) BigInteger(name string) *Column {
	return b.addColumn(&Column{Name: name, Type: ColumnTypeBigInt})
}

// ForeignID adds an unsigned big integer column for a reference to another
// table's id.
func (b *Blueprint) ForeignID(name string) *Column {
	return b.BigInteger(name).Unsigned()
}

func (b *Blueprint) Boolean(name string) *Column {
	return b.addColumn(&Column{Name: name, Type: ColumnTypeBoolean})
}

func (b *Blueprint) Timestamp(name string) *Column {
	return b.addColumn(&Column{Name: name, Type: ColumnTypeTimestamp})
}

func (b *Blueprint) Decimal(name string, precision, scale int) *Column {
	return b.addColumn(&Column{Name: name, Type: ColumnTypeDecimal, Precision: precision, Scale: scale})
}

// Timestamps adds created_at and updated_at, both defaulting to the current
// time.
func (b *Blueprint) Timestamps() {
	b.Timestamp("created_at").Default(CurrentTimestamp)
	b.Timestamp("updated_at").Default(CurrentTimestamp)
}

func (b *Blueprint) addColumn(column *Column) *Column {
	b.columns = append(b.columns, column)
	return column
}

// Unique adds a (possibly composite) unique index.
func (b *Blueprint) Unique(columns ...string) {
	b.indexes = append(b.indexes, Index{Name: b.indexName(columns, "unique"), Columns: columns, Type: IndexTypeUnique})
}

// Index adds a (possibly composite) index.
func (b *Blueprint) Index(columns ...string) {
	b.indexes = append(b.indexes, Index{Name: b.indexName(columns, "index"), Columns: columns, Type: IndexTypeIndex})
}

// Foreign starts a foreign key definition on column.
func (b *Blueprint) Foreign(column string) *ForeignKey {
	fk := &ForeignKey{Column: column, ReferencedColumn: "id"}
	b.foreignKeys = append(b.foreignKeys, fk)
	return fk
}

func (b *Blueprint) indexName(columns []string, suffix string) string {
	name := b.table
	for _, c := range columns {
		name += "_" + c
	}
	return fmt.Sprintf("%s_%s", name, suffix)
}
