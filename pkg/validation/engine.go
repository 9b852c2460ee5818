package validation

import (
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	"katydid-model-validation/pkg/validation/metadata"
)

const (
	// defaultMaxDepth 默认最大嵌套校验深度，防止循环引用导致栈溢出
	defaultMaxDepth = 100
)

// Engine 模型校验门面
// 职责：解析模型的元数据，向注册表索取校验器并汇总结果
// 校验流程（每个结构体节点）：
//  1. 按声明顺序校验每个成员：先执行必填校验器，必填失败则跳过该成员的其余校验器
//  2. 成员是结构体时递归校验（受 MaxDepth 限制），成员已带嵌套规则时由规则负责
//  3. 节点的所有成员都通过后，执行类型级校验器
type Engine struct {
	metadata      metadata.Provider
	providers     *Registry
	logger        *zap.Logger
	maxDepth      int
	recoverPanics bool
	nested        bool
}

// Option 引擎选项
type Option func(*Engine)

// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMaxDepth 设置最大嵌套深度
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// WithRecoverPanics 是否把校验器的 panic 转换为字段错误
// 默认不捕获，panic 直接向上传播
func WithRecoverPanics(recoverPanics bool) Option {
	return func(e *Engine) {
		e.recoverPanics = recoverPanics
	}
}

// WithNestedStructs 是否自动递归校验结构体成员（默认开启）
func WithNestedStructs(nested bool) Option {
	return func(e *Engine) {
		e.nested = nested
	}
}

// NewEngine 创建校验引擎
// mp 为 nil 时使用全局默认元数据提供者；providers 为 nil 时使用空注册表
// 注册表尚未绑定元数据提供者时绑定 mp，规则由此读取同一份元数据
func NewEngine(mp metadata.Provider, providers *Registry, opts ...Option) *Engine {
	if mp == nil {
		mp = metadata.Default()
	}
	if providers == nil {
		providers = NewRegistry()
	}
	providers.bindMetadata(mp)

	e := &Engine{
		metadata:  mp,
		providers: providers,
		logger:    zap.NewNop(),
		maxDepth:  defaultMaxDepth,
		nested:    true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Providers 返回引擎使用的注册表
func (e *Engine) Providers() *Registry {
	return e.providers
}

// Metadata 返回引擎使用的元数据提供者
func (e *Engine) Metadata() metadata.Provider {
	return e.metadata
}

// Validate 校验模型
// 返回 nil 表示通过，否则返回 ValidationErrors
func (e *Engine) Validate(model any) error {
	if isNilValue(model) {
		return ValidationErrors{NewFieldError("", KindRequired.String(), "validation target cannot be nil")}
	}

	start := time.Now()
	typ := reflect.TypeOf(model)

	var errs ValidationErrors
	e.validateNode(model, typ, "", 0, &errs)

	e.logger.Debug("validation finished",
		zap.Stringer("type", typ),
		zap.Int("errors", len(errs)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateProperty 只校验模型的单个成员（不递归）
func (e *Engine) ValidateProperty(model any, propertyName string) error {
	if isNilValue(model) {
		return ValidationErrors{NewFieldError("", KindRequired.String(), "validation target cannot be nil")}
	}

	typ := reflect.TypeOf(model)
	// 先做参数和成员存在性检查
	if _, err := e.metadata.GetMetadataForProperty(nil, typ, propertyName); err != nil {
		return err
	}
	properties, err := e.metadata.GetMetadataForProperties(model, typ)
	if err != nil {
		return err
	}

	var errs ValidationErrors
	for _, md := range properties {
		if md.PropertyName() == propertyName {
			e.runValidators(md, model, "", propertyName, &errs)
			break
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// validateNode 校验一个结构体节点
func (e *Engine) validateNode(model any, typ reflect.Type, prefix string, depth int, errs *ValidationErrors) {
	if depth > e.maxDepth {
		*errs = append(*errs, NewFieldError(prefix, "nest_depth",
			fmt.Sprintf("nested validation depth exceeds maximum limit %d", e.maxDepth)))
		return
	}

	properties, err := e.metadata.GetMetadataForProperties(model, typ)
	if err != nil {
		*errs = append(*errs, NewFieldError(prefix, "metadata", err.Error()))
		return
	}

	before := len(*errs)
	for _, md := range properties {
		namespace := joinNamespace(prefix, md.PropertyName())
		passed, nestedRule := e.runValidators(md, model, prefix, namespace, errs)
		if !passed {
			continue
		}

		if e.nested && !nestedRule && md.IsComplexType() {
			if child := md.Model(); !isNilValue(child) {
				e.validateNode(child, md.ModelType(), namespace, depth+1, errs)
			}
		}
	}

	// 成员全部通过后才执行类型级校验
	if len(*errs) > before {
		return
	}
	typeMD, err := e.metadata.GetMetadataForType(func() any { return model }, typ)
	if err != nil {
		*errs = append(*errs, NewFieldError(prefix, "metadata", err.Error()))
		return
	}
	e.runValidators(typeMD, model, prefix, prefix, errs)
}

// runValidators 执行成员的所有校验器
// prefix 为容器路径，namespace 为成员路径；结果中的成员名相对于容器
// passed 为 false 表示必填校验失败（其余校验器已被跳过）
// nestedRule 表示成员带有嵌套规则，子结构体不再自动递归
func (e *Engine) runValidators(md *metadata.Metadata, container any, prefix, namespace string, errs *ValidationErrors) (passed, nestedRule bool) {
	validators := e.providers.GetValidators(md)
	if len(validators) == 0 {
		return true, false
	}
	for _, v := range validators {
		if ruleKind(v) == KindNested {
			nestedRule = true
			break
		}
	}

	// 必填校验器优先
	for _, v := range validators {
		if !v.IsRequired() {
			continue
		}
		if results := e.invoke(v, container, namespace, errs); len(results) > 0 {
			e.collect(v, prefix, namespace, results, errs)
			return false, nestedRule
		}
	}

	for _, v := range validators {
		if v.IsRequired() {
			continue
		}
		e.collect(v, prefix, namespace, e.invoke(v, container, namespace, errs), errs)
	}
	return true, nestedRule
}

// invoke 调用单个校验器，按配置决定是否隔离 panic
func (e *Engine) invoke(v ModelValidator, container any, namespace string, errs *ValidationErrors) (results []Result) {
	if !e.recoverPanics {
		return v.Validate(container)
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("validator panicked",
				zap.String("namespace", namespace),
				zap.Any("panic", r),
			)
			*errs = append(*errs, NewFieldError(namespace, "panic", fmt.Sprintf("validator panicked: %v", r)))
			results = nil
		}
	}()
	return v.Validate(container)
}

// collect 把校验结果转换为字段错误
func (e *Engine) collect(v ModelValidator, prefix, namespace string, results []Result, errs *ValidationErrors) {
	if len(results) == 0 {
		return
	}

	tag := ruleKind(v).String()
	for _, r := range results {
		target := namespace
		if r.MemberName != "" {
			target = joinNamespace(prefix, r.MemberName)
		}
		*errs = append(*errs, NewFieldError(target, tag, r.Message))
	}
}

// ruleKind 返回校验器绑定的规则类别，无法识别时为 KindCustom
func ruleKind(v ModelValidator) RuleKind {
	if rv, ok := v.(interface{ Rule() Rule }); ok && rv.Rule() != nil {
		return rv.Rule().Kind()
	}
	return KindCustom
}

// isNilValue 判断值是否为 nil（包含 nil 指针、nil map 等）
func isNilValue(value any) bool {
	if value == nil {
		return true
	}
	val := reflect.ValueOf(value)
	switch val.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return val.IsNil()
	default:
		return false
	}
}
