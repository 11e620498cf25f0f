// Package futgen wires capability loading, input layering, generator
// dispatch and expansion into one generation run for a device pair.
//
// A run loads the capabilities of the device under test (gateway) and of
// the reference device (leaf), the regulatory table, and the generic,
// platform and model input layers. TestConfigs then merges the layers,
// dispatches every selected test to its suite generator (or the default
// one) and returns the expanded parameter sets per test:
//
//	gen, err := futgen.New(ctx, futgen.Options{BaseDir: ".", DUT: "PP603X", REF: "PP203X"})
//	if err != nil {
//		return err
//	}
//	configs, err := gen.TestConfigs(ctx)
//
// GenerateMatrix runs several independent pairs concurrently.
package futgen
