package tracing

import (
	"sync"

	"github.com/jt828/ollyllm-go/pkg/observability"
)

func SetFallbackLogger(log observability.Logger) (restore func()) {
	prev := fallbackLog
	fallbackLog = log
	uninitializedOnce = sync.Once{}
	return func() {
		fallbackLog = prev
		uninitializedOnce = sync.Once{}
	}
}

var SimplifyFuncName = simplifyFuncName
