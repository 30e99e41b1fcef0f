package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodes(t *testing.T) {
	err := Error(EPOLICY, "group %s is a reference group", "uppercase")
	assert.Equal(t, EPOLICY, Code(err))
	assert.Equal(t, "group uppercase is a reference group", UserMessage(err))
	assert.Equal(t, "[125] not permitted: group uppercase is a reference group", err.Error())
	//
	wrapped := fmt.Errorf("commit: %w", Error(ECONFLICT, "open conflicts"))
	assert.Equal(t, ECONFLICT, Code(wrapped))
	assert.Equal(t, NOERROR, Code(nil))
	assert.Equal(t, EINTERNAL, Code(errors.New("plain")))
	assert.Equal(t, "", UserMessage(nil))
}

func TestWrapError(t *testing.T) {
	cause := errors.New("no such file")
	err := WrapError(cause, EMISSING, "cannot open %s", "groups.xml")
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, EMISSING, Code(err))
	assert.Equal(t, "cannot open groups.xml", UserMessage(err))
	assert.Equal(t, EINVALID, Code(WrapError(nil, EINVALID, "")))
	assert.Equal(t, "[123] invalid", ErrorWithCode(nil, EINVALID).Error())
}
