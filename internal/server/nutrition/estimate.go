// Package nutrition holds the rough calorie estimate used when a meal is
// recorded without a calorie count.
package nutrition

import "strings"

// DefaultCalories is the estimate for a food name that matches no keyword.
const DefaultCalories = 150

type keywordEstimate struct {
	keywords []string
	calories int
}

// Checked in order; the first keyword contained in the name wins.
var estimates = []keywordEstimate{
	{[]string{"apple", "banana", "orange"}, 80},
	{[]string{"chicken", "breast"}, 165},
	{[]string{"rice", "pasta"}, 130},
	{[]string{"salad", "vegetables"}, 50},
	{[]string{"bread", "toast"}, 80},
	{[]string{"eggs", "egg"}, 70},
	{[]string{"milk", "yogurt"}, 120},
	{[]string{"fish", "salmon"}, 200},
	{[]string{"beef", "steak"}, 250},
	{[]string{"pizza"}, 300},
	{[]string{"burger", "hamburger"}, 350},
	{[]string{"coffee", "tea"}, 5},
	{[]string{"water"}, 0},
}

// EstimateCalories guesses a meal's calories from its name.
func EstimateCalories(name string) int {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, e := range estimates {
		for _, kw := range e.keywords {
			if strings.Contains(n, kw) {
				return e.calories
			}
		}
	}
	return DefaultCalories
}
