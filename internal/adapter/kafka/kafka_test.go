package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/vessel-detect-etl/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	det := domain.Detection{
		X:          153.2401,
		Y:          -27.4612,
		Confidence: 0.85,
		Class:      domain.ClassMoving,
		Width:      0.25,
		Height:     0.5,
		Space:      domain.SpaceLatLong,
		Sources:    domain.NewSourceSet("20230115_b", "20230115_a"),
	}

	msg, err := serializeToMessage("15/01/2023", det)
	require.NoError(t, err)

	assert.Equal(t, []byte("15/01/2023"), msg.Key)
	assert.JSONEq(t, `{
		"date": "15/01/2023",
		"class": "moving",
		"latitude": -27.4612,
		"longitude": 153.2401,
		"confidence": 0.85,
		"width": 0.25,
		"height": 0.5,
		"sources": "20230115_a 20230115_b"
	}`, string(msg.Value))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "class", msg.Headers[0].Key)
	assert.Equal(t, []byte("moving"), msg.Headers[0].Value)
}
