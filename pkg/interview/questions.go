package interview

import "strings"

// DefaultQuestions is the built-in JavaScript screening bank, used when setup
// supplies no questions and generation is unavailable.
var DefaultQuestions = []string{
	"What is the difference between var, let, and const in JavaScript?",
	"Explain how closures work and give an example of where you would use one.",
	"What is the event loop and how does JavaScript handle asynchronous operations?",
	"What is the difference between double equals and triple equals comparison?",
	"Explain what a Promise is and how it differs from a callback.",
	"What does the this keyword refer to, and how does it change with arrow functions?",
	"What is prototypal inheritance and how does it differ from classical inheritance?",
	"Explain hoisting and how it affects variable and function declarations.",
	"What is the difference between null and undefined?",
	"How does async await work, and what happens when an awaited promise rejects?",
	"What are higher order functions? Give an example using map or reduce.",
	"Explain event delegation and why it is useful when handling DOM events.",
	"What is the difference between shallow copy and deep copy of an object?",
	"What are JavaScript modules and how do import and export work?",
	"Explain debouncing and throttling and when you would use each.",
	"What is the temporal dead zone?",
	"How does garbage collection work in JavaScript?",
	"What is the difference between synchronous and asynchronous iteration?",
	"Explain how destructuring assignment works for arrays and objects.",
	"What are generators and what problems do they solve?",
}

// BuildQueue produces the fixed-length question queue decided at session
// start. Supplied questions take priority; blank entries are dropped, and the
// default bank fills in when nothing usable remains. The queue is truncated
// to n and its order is preserved so delivery is deterministic.
func BuildQueue(questions []string, n int) []string {
	if n <= 0 {
		n = 10
	}
	src := make([]string, 0, len(questions))
	for _, q := range questions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		src = append(src, q)
	}
	if len(src) == 0 {
		src = append(src, DefaultQuestions...)
	}
	if len(src) > n {
		src = src[:n]
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}
