package engine

import "github.com/roach88/customobjects/internal/ir"

// buildEntry assembles one config entry. Rotation is stored as
// (Roll, Pitch, Yaw); only blueprint entries can carry Once.
func buildEntry(scenario string, kind ir.Kind, index int, loc ir.Vec3, rot ir.Rotation, opts ir.Options) ir.Entry {
	return ir.Entry{
		Scenario:   scenario,
		Kind:       kind,
		AssetIndex: index,
		Location:   loc,
		Rotation:   rot.RPY(),
		Once:       kind == ir.KindBlueprint && opts.AppendOnce,
	}
}
