package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, Conflict, KindOf(New(Conflict, "队伍已满")))
	assert.Equal(t, NotFound, KindOf(fmt.Errorf("load team: %w", New(NotFound, ""))))
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
	assert.True(t, Is(New(PermissionDenied, ""), PermissionDenied))
	assert.False(t, Is(nil, Internal))
}

func TestPublicHidesInternalCause(t *testing.T) {
	err := Wrap(Internal, errors.New("pq: relation \"teams\" does not exist"), "创建队伍失败")

	code, msg := Public(err)
	assert.Equal(t, 50000, code)
	assert.NotContains(t, msg, "pq")
	assert.ErrorContains(t, err, "relation")
}

func TestDefaultMessage(t *testing.T) {
	e := New(InvalidArgument, "")
	assert.Equal(t, "请求参数错误", e.Msg)
	assert.Equal(t, 40000, e.Code())

	code, msg := Public(Newf(Conflict, "用户最多创建 %d 个队伍", 5))
	assert.Equal(t, 40900, code)
	assert.Equal(t, "用户最多创建 5 个队伍", msg)
}
