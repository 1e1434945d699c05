package table

import (
	"testing"

	"pdxgraph/testutil"
)

func TestDoesNotImportPipeline(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.PackageImportForbidden("pdxgraph/internal/core"), "table sits below the pipeline")
}
