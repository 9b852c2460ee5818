package provider

import (
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"katydid-model-validation/pkg/validation"
	"katydid-model-validation/pkg/validation/core"
	"katydid-model-validation/pkg/validation/metadata"
	"katydid-model-validation/pkg/validation/rules"
)

type order struct {
	ID     string `validate:"required,uuid4"`
	Amount int    `validate:"gt=0"`
	Note   string
	Skip   string   `validate:"-"`
	Loose  string   `validate:"omitempty"`
	Color  string   `validate:"required"`
	Tags   []string `validate:"dive,required"`
}

type Contact struct {
	Phone   string
	SMSCode string `validate:"required_with=Phone"`
}

type registration struct {
	Contact
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

type badTag struct {
	Code string `validate:"no_such_tag"`
}

type custom struct {
	Code string `check:"required"`
}

type notSelf struct {
	Value string
}

type selfModel struct {
	OK bool
}

func (s selfModel) ValidateSelf(report validation.ReportFunc) {
	if !s.OK {
		report("OK", "not ok")
	}
}

var orderType = reflect.TypeOf(order{})

func propertyMD(t *testing.T, typ reflect.Type, name string, value any) *metadata.Metadata {
	t.Helper()
	md, err := metadata.NewCachedProvider().GetMetadataForProperty(func() any { return value }, typ, name)
	require.NoError(t, err)
	return md
}

func typeMD(t *testing.T, value any) *metadata.Metadata {
	t.Helper()
	md, err := metadata.NewCachedProvider().GetMetadataForType(func() any { return value }, reflect.TypeOf(value))
	require.NoError(t, err)
	return md
}

func kinds(validators []validation.ModelValidator) []validation.RuleKind {
	result := make([]validation.RuleKind, 0, len(validators))
	for _, v := range validators {
		result = append(result, v.(*validation.Validator).Rule().Kind())
	}
	return result
}

// ============================================================================
// 1. Table
// ============================================================================

func TestTable_Register(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.RegisterRules(orderType, "Note", rules.Required{}))
	require.NoError(t, table.RegisterRules(reflect.PointerTo(orderType), "Note", rules.NewStringLength(0, 5)))
	assert.Equal(t, 1, table.Len())

	providers := validation.NewRegistry(table)
	validators := table.GetValidators(propertyMD(t, orderType, "Note", "x"), providers)
	assert.Equal(t, []validation.RuleKind{validation.KindRequired, validation.KindLength}, kinds(validators))

	assert.Empty(t, table.GetValidators(propertyMD(t, orderType, "Amount", 1), providers))
	assert.Nil(t, table.GetValidators(nil, providers))
}

func TestTable_RegisterErrors(t *testing.T) {
	table := NewTable()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "类型为nil", err: table.RegisterRules(nil, "Note", rules.Required{}), want: core.ErrArgumentNil},
		{name: "规则为nil", err: table.RegisterRules(orderType, "Note", nil), want: core.ErrArgumentNil},
		{name: "规则为nil指针", err: table.RegisterRules(orderType, "Note", (*rules.Required)(nil)), want: core.ErrArgumentNil},
		{name: "工厂为nil", err: table.Register(orderType, "Note", nil), want: core.ErrArgumentNil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.want)
		})
	}
	assert.Equal(t, 0, table.Len())
}

func TestTable_TypeLevel(t *testing.T) {
	table := NewTable()
	rule := rules.NewFunc("bad order", func(value any) bool {
		return value.(order).Amount < 100
	})
	require.NoError(t, For[order](table).Type(rule).Err())

	validators := table.GetValidators(typeMD(t, order{Amount: 500}), validation.NewRegistry())
	require.Len(t, validators, 1)
	assert.Equal(t, []validation.Result{{Message: "bad order"}}, validators[0].Validate(nil))
}

func TestTable_Factory(t *testing.T) {
	table := NewTable()
	err := For[order](table).
		FieldFunc("Note", func(md *metadata.Metadata) validation.Rule {
			return rules.StringLength{Max: 3, Message: md.PropertyName() + " too long"}
		}, func(*metadata.Metadata) validation.Rule {
			return nil
		}, func(*metadata.Metadata) validation.Rule {
			var skipped *rules.Required
			return skipped
		}).
		Err()
	require.NoError(t, err)

	validators := table.GetValidators(propertyMD(t, orderType, "Note", "abcd"), validation.NewRegistry())
	require.Len(t, validators, 1)
	assert.Equal(t, []validation.Result{{Message: "Note too long"}}, validators[0].Validate(nil))
}

func TestTypeBuilder_Errors(t *testing.T) {
	table := NewTable()

	err := For[order](table).Field("", rules.Required{}).Field("Note", rules.Required{}).Err()
	assert.ErrorIs(t, err, core.ErrArgumentEmpty)
	assert.Equal(t, 0, table.Len(), "第一个错误之后不再注册")

	err = For[order](table).FieldFunc("", Static(rules.Required{})).Err()
	assert.ErrorIs(t, err, core.ErrArgumentEmpty)
}

// ============================================================================
// 2. TagProvider
// ============================================================================

func TestTagProvider_Parse(t *testing.T) {
	p := NewTagProvider()
	providers := validation.NewRegistry(p)

	tests := []struct {
		name   string
		member string
		want   []validation.RuleKind
	}{
		{name: "必填加标签", member: "ID", want: []validation.RuleKind{validation.KindRequired, validation.KindTag}},
		{name: "只有标签", member: "Amount", want: []validation.RuleKind{validation.KindTag}},
		{name: "没有标签", member: "Note", want: []validation.RuleKind{}},
		{name: "跳过", member: "Skip", want: []validation.RuleKind{}},
		{name: "只有omitempty", member: "Loose", want: []validation.RuleKind{}},
		{name: "只有必填", member: "Color", want: []validation.RuleKind{validation.KindRequired}},
		{name: "dive", member: "Tags", want: []validation.RuleKind{validation.KindTag}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validators := p.GetValidators(propertyMD(t, orderType, tt.member, nil), providers)
			assert.Equal(t, tt.want, kinds(validators))
		})
	}
}

func TestTagProvider_Validate(t *testing.T) {
	p := NewTagProvider()
	providers := validation.NewRegistry(p)

	tests := []struct {
		name   string
		member string
		value  any
		failed int
	}{
		{name: "合法uuid", member: "ID", value: "0b7e9d7a-6a4f-4d2e-9c1d-5f1b2a3c4d5e", failed: 0},
		{name: "非法uuid", member: "ID", value: "123", failed: 1},
		{name: "空ID两个规则都失败", member: "ID", value: "", failed: 2},
		{name: "金额为正", member: "Amount", value: 5, failed: 0},
		{name: "金额为零", member: "Amount", value: 0, failed: 1},
		{name: "元素为空", member: "Tags", value: []string{"a", ""}, failed: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failed := 0
			for _, v := range p.GetValidators(propertyMD(t, orderType, tt.member, tt.value), providers) {
				failed += len(v.Validate(nil))
			}
			assert.Equal(t, tt.failed, failed)
		})
	}
}

func TestTagProvider_Cache(t *testing.T) {
	p := NewTagProvider()
	first, err := p.rulesFor(orderType, "ID")
	require.NoError(t, err)
	second, err := p.rulesFor(reflect.PointerTo(orderType), "ID")
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.Equal(t, first, second)
}

func TestTagProvider_CrossField(t *testing.T) {
	p := NewTagProvider()
	providers := validation.NewRegistry(p)
	typ := reflect.TypeOf(registration{})

	confirm := p.GetValidators(propertyMD(t, typ, "ConfirmPassword", nil), providers)
	assert.Equal(t, []validation.RuleKind{validation.KindRequired, validation.KindTag}, kinds(confirm))
	structTag, ok := confirm[1].(*validation.Validator).Rule().(rules.StructTag)
	require.True(t, ok)
	assert.Equal(t, "ConfirmPassword", structTag.Field())
	assert.Equal(t, "eqfield=Password", structTag.Expr())

	smsCode := p.GetValidators(propertyMD(t, typ, "SMSCode", nil), providers)
	require.Len(t, smsCode, 1)
	structTag, ok = smsCode[0].(*validation.Validator).Rule().(rules.StructTag)
	require.True(t, ok)
	assert.Equal(t, "Contact.SMSCode", structTag.Field())

	tests := []struct {
		name      string
		container registration
		member    string
		failed    int
	}{
		{name: "密码一致", container: registration{Password: "secret1", ConfirmPassword: "secret1"}, member: "ConfirmPassword", failed: 0},
		{name: "密码不一致", container: registration{Password: "secret1", ConfirmPassword: "secret2"}, member: "ConfirmPassword", failed: 1},
		{name: "手机号和验证码都有值", container: registration{Contact: Contact{Phone: "1", SMSCode: "2"}}, member: "SMSCode", failed: 0},
		{name: "有手机号缺验证码", container: registration{Contact: Contact{Phone: "1"}}, member: "SMSCode", failed: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			properties, err := metadata.NewCachedProvider().GetMetadataForProperties(&tt.container, typ)
			require.NoError(t, err)

			failed := 0
			for _, md := range properties {
				if md.PropertyName() != tt.member {
					continue
				}
				for _, v := range p.GetValidators(md, providers) {
					assert.NotPanics(t, func() { failed += len(v.Validate(&tt.container)) })
				}
			}
			assert.Equal(t, tt.failed, failed)
		})
	}
}

func TestTagProvider_CustomTagNameCrossField(t *testing.T) {
	type form struct {
		Password string
		Confirm  string `check:"eqfield=Password"`
	}

	p := NewTagProvider(WithTagName("check"))
	providers := validation.NewRegistry(p)
	container := form{Password: "a", Confirm: "b"}
	properties, err := metadata.NewCachedProvider().GetMetadataForProperties(container, reflect.TypeOf(container))
	require.NoError(t, err)

	validators := p.GetValidators(properties[1], providers)
	require.Len(t, validators, 1)
	assert.Len(t, validators[0].Validate(container), 1)
}

func TestTagProvider_InvalidTag(t *testing.T) {
	p := NewTagProvider()
	md := propertyMD(t, reflect.TypeOf(badTag{}), "Code", "x")

	assert.Panics(t, func() {
		p.GetValidators(md, validation.NewRegistry())
	})
}

func TestTagProvider_Options(t *testing.T) {
	p := NewTagProvider(WithTagName("check"), WithValidate(validator.New()))
	md := propertyMD(t, reflect.TypeOf(custom{}), "Code", "")

	validators := p.GetValidators(md, validation.NewRegistry())
	assert.Equal(t, []validation.RuleKind{validation.KindRequired}, kinds(validators))

	// 类型级元数据不产出校验器
	assert.Empty(t, p.GetValidators(typeMD(t, custom{}), validation.NewRegistry()))
}

// ============================================================================
// 3. SelfValidatingProvider
// ============================================================================

func TestSelfValidatingProvider(t *testing.T) {
	p := NewSelfValidatingProvider()
	providers := validation.NewRegistry(p)

	t.Run("成员元数据", func(t *testing.T) {
		md := propertyMD(t, reflect.TypeOf(selfModel{}), "OK", true)
		assert.Empty(t, p.GetValidators(md, providers))
	})

	t.Run("未实现接口", func(t *testing.T) {
		assert.Empty(t, p.GetValidators(typeMD(t, notSelf{}), providers))
	})

	t.Run("通过", func(t *testing.T) {
		validators := p.GetValidators(typeMD(t, selfModel{OK: true}), providers)
		require.Len(t, validators, 1)
		assert.False(t, validators[0].IsRequired())
		assert.Empty(t, validators[0].Validate(nil))
	})

	t.Run("失败", func(t *testing.T) {
		validators := p.GetValidators(typeMD(t, selfModel{}), providers)
		require.Len(t, validators, 1)
		assert.Equal(t, []validation.Result{{MemberName: "OK", Message: "not ok"}}, validators[0].Validate(nil))
	})
}
