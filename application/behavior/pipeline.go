package behavior

import (
	"catalog/application/mediator"
	"catalog/application/validation"
)

// Pipeline 返回固定顺序的行为链: 校验 → 计时 → 事务。
// 校验失败时不会开启事务；计时覆盖事务的提交耗时。
func Pipeline(v *validation.Behavior, p *Performance, t *Transaction) []mediator.Behavior {
	return []mediator.Behavior{v, p, t}
}
