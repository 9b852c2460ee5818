package main

import (
	"sort"

	"katydid-model-validation/pkg/validation"
	"katydid-model-validation/pkg/validation/metadata"
	"katydid-model-validation/pkg/validation/provider"
	"katydid-model-validation/pkg/validation/rules"
)

// Address 地址
type Address struct {
	City    string `json:"city" validate:"required" display:"城市"`
	ZipCode string `json:"zip_code" validate:"omitempty,numeric,len=6" display:"邮编"`
}

// User 注册用户
type User struct {
	Username        string   `json:"username" validate:"required,min=3,max=20,alphanum" display:"用户名"`
	Email           string   `json:"email" validate:"required,email" display:"邮箱"`
	Age             int      `json:"age" validate:"omitempty,gte=0,lte=150"`
	Password        string   `json:"password" validate:"required,min=6"`
	ConfirmPassword string   `json:"confirm_password" display:"确认密码"`
	Address         *Address `json:"address"`
}

// Order 订单
type Order struct {
	ID       string  `json:"id" validate:"required,uuid4"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Coupon   string  `json:"coupon"`
}

// ValidateSelf 优惠券只能用于 100 以上的订单
func (o *Order) ValidateSelf(report validation.ReportFunc) {
	if o.Coupon != "" && o.Amount < 100 {
		report("Coupon", "coupon requires an amount of at least 100")
	}
}

// demoMetadata 示例模型共用的元数据提供者
var demoMetadata = metadata.NewCachedProvider()

// models 已注册的模型工厂
var models = map[string]func() any{
	"user":  func() any { return &User{} },
	"order": func() any { return &Order{} },
}

// newModel 按名称创建模型实例
func newModel(name string) (any, bool) {
	factory, ok := models[name]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// modelNames 已注册的模型名（排序）
func modelNames() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// newProviders 组装示例模型的提供者注册表
// 顺序：标签规则、显式规则表、自校验
func newProviders() *validation.Registry {
	table := provider.NewTable()
	err := provider.For[User](table).
		Field("ConfirmPassword", rules.NewCompare("Password")).
		Err()
	if err != nil {
		panic(err)
	}
	err = provider.For[Order](table).
		Field("Amount", rules.NewRange(0.01, 1_000_000)).
		Field("Currency", rules.Required{}, rules.MustPattern(`[A-Z]{3}`)).
		Err()
	if err != nil {
		panic(err)
	}

	return validation.NewRegistry(
		provider.NewTagProvider(),
		table,
		provider.NewSelfValidatingProvider(),
	)
}
