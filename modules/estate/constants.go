package estate

import "github.com/gaze-network/estate-ordinals/common"

const (
	Name    = common.ModuleEstate
	Version = "v0.1.0"
)
