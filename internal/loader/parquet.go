package loader

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"

	"github.com/KaramelBytes/tablescope/internal/dataset"
)

type parquetLoader struct{}

func (parquetLoader) CanLoad(filename string) bool {
	return hasSuffix(filename, ".parquet", ".pq")
}

// Load reads the whole file into an Arrow table and converts each column by
// its Arrow type. Serialized dataframe index columns are skipped.
func (parquetLoader) Load(content []byte, _ Options) (*dataset.Dataset, error) {
	mem := memory.DefaultAllocator
	tbl, err := pqarrow.ReadTable(context.Background(), bytes.NewReader(content),
		parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	defer tbl.Release()

	ds := &dataset.Dataset{}
	rows := int(tbl.NumRows())
	for i := 0; i < int(tbl.NumCols()); i++ {
		col := tbl.Column(i)
		if strings.HasPrefix(col.Name(), "__index_level_") {
			continue
		}
		c, err := convertArrowColumn(col, rows)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name(), err)
		}
		ds.Columns = append(ds.Columns, c)
	}
	return ds, nil
}

type columnKind int

const (
	kindText columnKind = iota
	kindNumeric
	kindInteger
	kindBool
	kindTime
)

func arrowKind(dt arrow.DataType) columnKind {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return kindInteger
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		return kindNumeric
	case arrow.BOOL:
		return kindBool
	case arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64:
		return kindTime
	default:
		return kindText
	}
}

func convertArrowColumn(col *arrow.Column, rows int) (*dataset.Column, error) {
	kind := arrowKind(col.DataType())
	nulls := make([]bool, 0, rows)
	var (
		nums  []float64
		texts []string
		bools []bool
		times []time.Time
	)
	for _, chunk := range col.Data().Chunks() {
		for i := 0; i < chunk.Len(); i++ {
			null := chunk.IsNull(i)
			nulls = append(nulls, null)
			switch kind {
			case kindNumeric, kindInteger:
				v := 0.0
				if !null {
					v = arrowFloat(chunk, i)
					if math.IsNaN(v) || math.IsInf(v, 0) {
						v = 0
						nulls[len(nulls)-1] = true
					}
				}
				nums = append(nums, v)
			case kindBool:
				bools = append(bools, !null && chunk.(*array.Boolean).Value(i))
			case kindTime:
				var t time.Time
				if !null {
					t = arrowTime(chunk, i)
				}
				times = append(times, t)
			default:
				s := ""
				if !null {
					s = arrowString(chunk, i)
				}
				texts = append(texts, s)
			}
		}
	}
	if len(nulls) != rows {
		return nil, fmt.Errorf("expected %d values, read %d", rows, len(nulls))
	}
	name := col.Name()
	switch kind {
	case kindNumeric, kindInteger:
		c := dataset.NewNumeric(name, nums, nulls)
		c.Integer = kind == kindInteger
		return c, nil
	case kindBool:
		return dataset.NewBoolean(name, bools, nulls), nil
	case kindTime:
		return dataset.NewDatetime(name, times, nulls), nil
	default:
		return dataset.NewText(name, texts, nulls), nil
	}
}

func arrowFloat(a arrow.Array, i int) float64 {
	switch v := a.(type) {
	case *array.Int8:
		return float64(v.Value(i))
	case *array.Int16:
		return float64(v.Value(i))
	case *array.Int32:
		return float64(v.Value(i))
	case *array.Int64:
		return float64(v.Value(i))
	case *array.Uint8:
		return float64(v.Value(i))
	case *array.Uint16:
		return float64(v.Value(i))
	case *array.Uint32:
		return float64(v.Value(i))
	case *array.Uint64:
		return float64(v.Value(i))
	case *array.Float16:
		return float64(v.Value(i).Float32())
	case *array.Float32:
		return float64(v.Value(i))
	case *array.Float64:
		return v.Value(i)
	}
	return 0
}

func arrowTime(a arrow.Array, i int) time.Time {
	switch v := a.(type) {
	case *array.Timestamp:
		unit := v.DataType().(*arrow.TimestampType).Unit
		return v.Value(i).ToTime(unit)
	case *array.Date32:
		return v.Value(i).ToTime()
	case *array.Date64:
		return v.Value(i).ToTime()
	}
	return time.Time{}
}

func arrowString(a arrow.Array, i int) string {
	switch v := a.(type) {
	case *array.String:
		return v.Value(i)
	case *array.LargeString:
		return v.Value(i)
	case *array.Dictionary:
		return arrowString(v.Dictionary(), v.GetValueIndex(i))
	}
	return a.ValueStr(i)
}
