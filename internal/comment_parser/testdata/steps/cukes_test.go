package steps

// TestOnly is ignored because test files are skipped.
// @step `^a test only step$`
func TestOnly() {}
