package common

type Module string

const (
	ModuleEstate Module = "estate"
)

func (m Module) String() string {
	return string(m)
}
