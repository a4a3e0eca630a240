package unknown

// Pick
// @step `^I pick {color}$`
func Pick(color string) {}
