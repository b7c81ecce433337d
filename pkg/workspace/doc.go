// Package workspace builds an immutable model of a Cargo workspace.
//
// A Workspace is assembled from `cargo metadata` (the package and target
// listing plus the resolved dependency graph) and, optionally, from the
// build-script messages emitted by `cargo check --message-format=json`.
// Packages and targets live in arenas and are addressed by typed indices, so
// a Package can never be used where a Target is expected.
//
// The three inputs are produced independently and need not agree. Resolve
// nodes or dependency edges naming packages absent from the listing are
// dropped and reported through Workspace.Inconsistencies rather than failing
// the build.
//
// Basic usage:
//
//	ws, err := workspace.FromCargoMetadata(ctx, "path/to/Cargo.toml", workspace.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	for _, pkg := range ws.Members() {
//		fmt.Println(ws.PackageFlag(ws.Package(pkg)))
//	}
package workspace
