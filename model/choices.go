package model

// Choices はフォームのプルダウンに表示する選択肢です。
// 起動時に一度だけ生成し、以降は変更しません。
type Choices struct {
	teams      []string
	persons    []string
	conditions []string
}

// NewChoices は指定された選択肢からChoicesを生成します。引数のスライスはコピーされます。
func NewChoices(teams, persons, conditions []string) *Choices {
	return &Choices{
		teams:      clone(teams),
		persons:    clone(persons),
		conditions: clone(conditions),
	}
}

// DefaultChoices は現場で使用している既定の選択肢を返します。
func DefaultChoices() *Choices {
	return NewChoices(
		[]string{"永野", "檀上", "稲垣", "社長"},
		[]string{"永野", "稲垣", "檀上", "社長", "貞重", "眞鍋", "村田"},
		[]string{"良好", "普通", "ぬかるみ", "積雪"},
	)
}

// Teams はチームの選択肢を返します。
func (c *Choices) Teams() []string { return clone(c.teams) }

// Persons は担当者の選択肢を返します。
func (c *Choices) Persons() []string { return clone(c.persons) }

// Conditions は現場状況の選択肢を返します。
func (c *Choices) Conditions() []string { return clone(c.conditions) }

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
