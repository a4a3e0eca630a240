package nested

// Said
// @step `^the user says {string}$`
func Said(text string) {}
