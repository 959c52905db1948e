package services

import "agent-suite/internal/domain/entities"

// problemCatalog is the built-in exercise set. Solutions run against
// these test cases in the external sandbox.
var problemCatalog = []entities.Problem{
	{
		ID:         "binary-search",
		Title:      "Binary Search",
		Category:   "Binary Search",
		Difficulty: "easy",
		Description: "Given a sorted array of integers nums and a target value, return the index of " +
			"the target if it exists in the array, otherwise return -1. Your algorithm must run in O(log n).",
		FunctionName: "binary_search",
		StarterCode: `def binary_search(nums, target):
    """
    Find target in sorted array nums.
    Return index if found, -1 otherwise.
    """
    # Your code here
    pass`,
		TestCases: []entities.TestCase{
			{Input: []any{[]any{-1, 0, 3, 5, 9, 12}, 9}, Expected: 4},
			{Input: []any{[]any{-1, 0, 3, 5, 9, 12}, 2}, Expected: -1},
			{Input: []any{[]any{5}, 5}, Expected: 0},
			{Input: []any{[]any{2, 5}, 5}, Expected: 1},
			{Input: []any{[]any{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 1}, Expected: 0},
		},
	},
	{
		ID:         "two-sum",
		Title:      "Two Sum",
		Category:   "Hash Map",
		Difficulty: "easy",
		Description: "Given an array of integers nums and an integer target, return the indices of the " +
			"two numbers that add up to target. Each input has exactly one solution, and you may not use " +
			"the same element twice.",
		FunctionName: "two_sum",
		StarterCode: `def two_sum(nums, target):
    """
    Return indices of the two numbers adding up to target.
    """
    # Your code here
    pass`,
		TestCases: []entities.TestCase{
			{Input: []any{[]any{2, 7, 11, 15}, 9}, Expected: []any{0, 1}},
			{Input: []any{[]any{3, 2, 4}, 6}, Expected: []any{1, 2}},
			{Input: []any{[]any{3, 3}, 6}, Expected: []any{0, 1}},
		},
	},
	{
		ID:         "valid-parentheses",
		Title:      "Valid Parentheses",
		Category:   "Stack",
		Difficulty: "easy",
		Description: "Given a string containing just the characters '(', ')', '{', '}', '[' and ']', " +
			"determine if the input string is valid: brackets must close in the correct order.",
		FunctionName: "is_valid",
		StarterCode: `def is_valid(s):
    """
    Return True when every bracket closes in order.
    """
    # Your code here
    pass`,
		TestCases: []entities.TestCase{
			{Input: []any{"()"}, Expected: true},
			{Input: []any{"()[]{}"}, Expected: true},
			{Input: []any{"(]"}, Expected: false},
			{Input: []any{"([)]"}, Expected: false},
			{Input: []any{"{[]}"}, Expected: true},
		},
	},
	{
		ID:         "reverse-linked-list",
		Title:      "Reverse Linked List",
		Category:   "Linked List",
		Difficulty: "medium",
		Description: "Given the values of a singly linked list as an array, return the values reversed. " +
			"Aim for a single pass.",
		FunctionName: "reverse_list",
		StarterCode: `def reverse_list(values):
    """
    Return the list values in reverse order.
    """
    # Your code here
    pass`,
		TestCases: []entities.TestCase{
			{Input: []any{[]any{1, 2, 3, 4, 5}}, Expected: []any{5, 4, 3, 2, 1}},
			{Input: []any{[]any{1, 2}}, Expected: []any{2, 1}},
			{Input: []any{[]any{}}, Expected: []any{}},
		},
	},
}

// Problems returns the full catalog.
func Problems() []entities.Problem {
	return problemCatalog
}

// ProblemByID looks up one catalog entry.
func ProblemByID(id string) (entities.Problem, bool) {
	for _, p := range problemCatalog {
		if p.ID == id {
			return p, true
		}
	}
	return entities.Problem{}, false
}
