package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONRoundTrip(t *testing.T) {
	in := samplePayload{Name: "widget", Count: 3}
	data, err := JSON{}.Marshal(in)
	require.NoError(t, err)

	var out samplePayload
	require.NoError(t, JSON{}.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	assert.Equal(t, "json", c.Name())

	_, ok = ByName("go-json")
	assert.False(t, ok)
}

func TestMustMarshalPanicsOnUnsupportedValue(t *testing.T) {
	assert.Panics(t, func() {
		MustMarshal(JSON{}, make(chan int))
	})
}

func BenchmarkCodec_Unmarshal_SamplePayload(b *testing.B) {
	data := MustMarshal(JSON{}, samplePayload{Name: "widget", Count: 3})

	var sink samplePayload
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := (JSON{}).Unmarshal(data, &sink); err != nil {
			b.Fatal(err)
		}
	}
}
