package parquetutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Id      string `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Amount  string `parquet:"name=amount, type=BYTE_ARRAY, convertedtype=UTF8"`
	Created int64  `parquet:"name=created, type=INT64"`
}

func TestWriteAllReadBytes(t *testing.T) {
	rows := []row{
		{Id: "a", Amount: "1.5", Created: 1},
		{Id: "b", Amount: "20", Created: 2},
		{Id: "c", Amount: "0.001", Created: 3},
	}

	data, err := WriteAll(rows)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	// parquet magic
	assert.Equal(t, "PAR1", string(data[:4]))

	decoded, err := ReadBytes[row](data)
	require.NoError(t, err)
	assert.Equal(t, rows, decoded)
}

func TestWriteAllEmpty(t *testing.T) {
	data, err := WriteAll([]row{})
	require.NoError(t, err)

	decoded, err := ReadBytes[row](data)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}
