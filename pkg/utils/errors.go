package utils

// PanicIfNeeded panics with err so the REST recovery middleware can turn it
// into a JSON error response.
func PanicIfNeeded(err any) {
	if err != nil {
		panic(err)
	}
}
