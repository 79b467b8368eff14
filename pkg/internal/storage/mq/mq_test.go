package mq_test

import (
	"testing"

	"github.com/yeisme/voxvault/pkg/configs"
	"github.com/yeisme/voxvault/pkg/internal/storage/mq"
)

// TestGetRegisteredMQTypes 验证内置后端通过 init 注册，CLI 的 mq list 依赖该列表.
func TestGetRegisteredMQTypes(t *testing.T) {
	types := mq.GetRegisteredMQTypes()

	registered := make(map[configs.MQType]bool, len(types))
	for _, mqType := range types {
		registered[mqType] = true
	}

	for _, want := range []configs.MQType{configs.MQTypeNATS, configs.MQTypeRedis} {
		if !registered[want] {
			t.Errorf("expected mq type %q to be registered, got %v", want, types)
		}
	}
}
