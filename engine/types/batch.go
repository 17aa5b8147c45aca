/*
Copyright 2022 Huawei Cloud Computing Technologies Co., Ltd.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

 http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package types

// Batch is a columnar block of rows sharing one time column.
type Batch struct {
	Times   []int64
	Columns [][]interface{}
}

func NewBatch(columns int) *Batch {
	return &Batch{Columns: make([][]interface{}, columns)}
}

func (b *Batch) RowCount() int {
	return len(b.Times)
}

// AppendRow adds one row, values index aligned with the columns.
func (b *Batch) AppendRow(ts int64, values ...interface{}) {
	b.Times = append(b.Times, ts)
	for i := range b.Columns {
		var v interface{}
		if i < len(values) {
			v = values[i]
		}
		b.Columns[i] = append(b.Columns[i], v)
	}
}

// SizeInBytes estimates the memory held by the batch.
func (b *Batch) SizeInBytes() int64 {
	size := int64(len(b.Times)) * 8
	for _, col := range b.Columns {
		for _, v := range col {
			switch s := v.(type) {
			case nil:
				size++
			case string:
				size += int64(len(s))
			case bool:
				size++
			case int32, float32:
				size += 4
			default:
				size += 8
			}
		}
	}
	return size
}
