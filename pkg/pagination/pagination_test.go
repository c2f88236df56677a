package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequestDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/orders", nil)
	params := FromRequest(r)
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, DefaultLimit, params.Limit)
	assert.Equal(t, 0, params.Offset())
}

func TestFromRequestParsesValues(t *testing.T) {
	r := httptest.NewRequest("GET", "/orders?page=3&limit=20", nil)
	params := FromRequest(r)
	assert.Equal(t, 3, params.Page)
	assert.Equal(t, 20, params.Limit)
	assert.Equal(t, 40, params.Offset())
}

func TestFromRequestRejectsGarbage(t *testing.T) {
	r := httptest.NewRequest("GET", "/orders?page=-2&limit=abc", nil)
	params := FromRequest(r)
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, DefaultLimit, params.Limit)
}

func TestNormalizeLimitCaps(t *testing.T) {
	assert.Equal(t, MaxLimit, NormalizeLimit(5000))
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, 42, NormalizeLimit(42))
}
