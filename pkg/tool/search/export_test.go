package search

func (x *Action) SetGenerator(g Generator) {
	x.generator = g
}
