package domain

import "math/rand"

// ShuffleOptions returns the correct answer and the incorrect answers in uniformly random order.
func ShuffleOptions(correct string, incorrect []string) []string {
	options := make([]string, 0, len(incorrect)+1)
	options = append(options, incorrect...)
	options = append(options, correct)
	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}
