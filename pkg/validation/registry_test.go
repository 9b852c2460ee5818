package validation_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"katydid-model-validation/pkg/validation"
	"katydid-model-validation/pkg/validation/core"
	"katydid-model-validation/pkg/validation/metadata"
	"katydid-model-validation/pkg/validation/rules"
)

// fixedProvider 为每个成员产出一条固定规则的校验器
func fixedProvider(rule validation.Rule) validation.Provider {
	return validation.ProviderFunc(func(md *metadata.Metadata, providers *validation.Registry) []validation.ModelValidator {
		return []validation.ModelValidator{validation.MustNewValidator(md, providers, rule)}
	})
}

func TestRegistry_Order(t *testing.T) {
	r := validation.NewRegistry(fixedProvider(rules.Required{}), nil)
	r.Register(fixedProvider(rules.NewRange(0, 1))).Register(nil)
	assert.Equal(t, 2, r.Len())

	validators := r.GetValidators(lengthMetadata(t, nil))
	require.Len(t, validators, 2)
	assert.True(t, validators[0].IsRequired())
	assert.False(t, validators[1].IsRequired())
}

func TestRegistry_Empty(t *testing.T) {
	r := validation.NewRegistry()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.GetValidators(lengthMetadata(t, nil)))
}

func TestRegistry_NilMetadata(t *testing.T) {
	r := validation.NewRegistry(fixedProvider(rules.Required{}))

	assert.Nil(t, r.GetValidators(nil))

	_, err := r.GetValidatorsE(nil)
	param, ok := core.IsArgumentError(err)
	assert.True(t, ok)
	assert.Equal(t, "metadata", param)
}

func TestRegistry_PassesItselfToProviders(t *testing.T) {
	var got *validation.Registry
	r := validation.NewRegistry(validation.ProviderFunc(func(_ *metadata.Metadata, providers *validation.Registry) []validation.ModelValidator {
		got = providers
		return nil
	}))

	r.GetValidators(lengthMetadata(t, nil))
	assert.Same(t, r, got)
}

func TestRegistry_Metadata(t *testing.T) {
	r := validation.NewRegistry()
	assert.Same(t, metadata.Default(), r.Metadata())

	mp := metadata.NewCachedProvider()
	assert.Same(t, r, r.WithMetadata(mp).WithMetadata(nil))
	assert.Same(t, mp, r.Metadata())

	// 引擎不覆盖已绑定的提供者
	validation.NewEngine(metadata.NewCachedProvider(), r)
	assert.Same(t, mp, r.Metadata())

	unbound := validation.NewRegistry()
	engine := validation.NewEngine(mp, unbound)
	assert.Same(t, mp, engine.Providers().Metadata())
}

func TestRegistry_ProvidersSnapshot(t *testing.T) {
	r := validation.NewRegistry(fixedProvider(rules.Required{}))
	snapshot := r.Providers()
	r.Register(fixedProvider(rules.Required{}))

	assert.Len(t, snapshot, 1)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_Concurrent(t *testing.T) {
	r := validation.NewRegistry()
	md := lengthMetadata(t, func() any { return "x" })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register(fixedProvider(rules.Required{}))
		}()
		go func() {
			defer wg.Done()
			for _, v := range r.GetValidators(md) {
				v.Validate(nil)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, r.Len())
}
