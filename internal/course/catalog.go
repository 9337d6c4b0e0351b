package course

// Static training catalog: seven lessons plus the final exam. Question keys
// encode their 1-based order; option tags are stable identifiers for
// reporting.

var catalogLessons = []Lesson{
	{
		Key:       "lesson_1",
		Title:     "Lesson 1. System overview",
		StatusKey: "compleat_lesson_1",
		NoteTitle: "Lesson 1 results",
		VideoURL:  "https://video.example.com/training/lesson-1",
		Questions: []Question{
			{
				Key:    "q1",
				Prompt: "What does a radio relay module switch?",
				Options: []Option{
					{Label: "The load circuit of the fixture", Tag: "load", Correct: true},
					{Label: "The backbone network router", Tag: "router"},
					{Label: "Nothing, it only reports state", Tag: "report"},
				},
			},
			{
				Key:    "q2",
				Prompt: "Which parts make up a minimal installation? Select all that apply.",
				Options: []Option{
					{Label: "Wireless wall switch", Tag: "switch", Correct: true},
					{Label: "Relay module behind the fixture", Tag: "relay", Correct: true},
					{Label: "Dedicated server rack", Tag: "rack"},
				},
			},
			{
				Key:    "q3",
				Prompt: "Where is the relay module normally mounted?",
				Options: []Option{
					{Label: "In the mounting box behind the switch or fixture", Tag: "box", Correct: true},
					{Label: "On the apartment facade", Tag: "facade"},
					{Label: "Inside the distribution board only", Tag: "board"},
				},
			},
		},
	},
	{
		Key:       "lesson_2",
		Title:     "Lesson 2. Radio link and range",
		StatusKey: "compleat_lesson_2",
		NoteTitle: "Lesson 2 results",
		VideoURL:  "https://video.example.com/training/lesson-2",
		Questions: []Question{
			{
				Key:    "q1",
				Prompt: "What reduces the effective radio range indoors? Select all that apply.",
				Options: []Option{
					{Label: "Reinforced concrete walls", Tag: "concrete", Correct: true},
					{Label: "Metal distribution boards", Tag: "metal", Correct: true},
					{Label: "Plasterboard partitions", Tag: "plasterboard"},
				},
			},
			{
				Key:    "q2",
				Prompt: "What should be used when the transmitter is out of direct range?",
				Options: []Option{
					{Label: "A signal repeater", Tag: "repeater", Correct: true},
					{Label: "A second wall switch", Tag: "second_switch"},
					{Label: "Thicker load wiring", Tag: "wiring"},
				},
			},
		},
	},
	{
		Key:       "lesson_3",
		Title:     "Lesson 3. Switch binding",
		StatusKey: "compleat_lesson_3",
		NoteTitle: "Lesson 3 results",
		VideoURL:  "https://video.example.com/training/lesson-3",
		Questions: []Question{
			{
				Key:    "q1",
				Prompt: "How is a wireless switch bound to a relay module?",
				Options: []Option{
					{Label: "Via the pairing button on the module", Tag: "pairing", Correct: true},
					{Label: "By soldering a jumper", Tag: "jumper"},
					{Label: "Binding is factory-fixed", Tag: "factory"},
				},
			},
			{
				Key:    "q2",
				Prompt: "How many transmitters can one relay module accept?",
				Options: []Option{
					{Label: "Exactly one", Tag: "one"},
					{Label: "Several, up to the module limit", Tag: "several", Correct: true},
					{Label: "None, modules are standalone", Tag: "none"},
				},
			},
			{
				Key:    "q3",
				Prompt: "Which actions clear a stored binding? Select all that apply.",
				Options: []Option{
					{Label: "Long-press of the pairing button", Tag: "longpress", Correct: true},
					{Label: "Factory reset of the module", Tag: "reset", Correct: true},
					{Label: "Power cycling the fixture once", Tag: "powercycle"},
				},
			},
		},
	},
	{
		Key:       "lesson_4",
		Title:     "Lesson 4. Load types and limits",
		StatusKey: "compleat_lesson_4",
		NoteTitle: "Lesson 4 results",
		VideoURL:  "https://video.example.com/training/lesson-4",
		Questions: []Question{
			{
				Key:    "q1",
				Prompt: "Which loads need a derated module rating? Select all that apply.",
				Options: []Option{
					{Label: "LED drivers with high inrush current", Tag: "led", Correct: true},
					{Label: "Electric motors", Tag: "motor", Correct: true},
					{Label: "Resistive heaters within nominal power", Tag: "heater"},
				},
			},
			{
				Key:    "q2",
				Prompt: "What happens when the connected load exceeds the module rating?",
				Options: []Option{
					{Label: "The relay contacts degrade or weld", Tag: "degrade", Correct: true},
					{Label: "The module re-rates itself automatically", Tag: "rerate"},
					{Label: "Nothing, the rating is advisory", Tag: "advisory"},
				},
			},
		},
	},
	{
		Key:       "lesson_5",
		Title:     "Lesson 5. Dimming and scenarios",
		StatusKey: "compleat_lesson_5",
		NoteTitle: "Lesson 5 results",
		VideoURL:  "https://video.example.com/training/lesson-5",
		Questions: []Question{
			{
				Key:    "q1",
				Prompt: "Which fixtures can be dimmed by a dimming module?",
				Options: []Option{
					{Label: "Dimmable LED and incandescent lamps", Tag: "dimmable", Correct: true},
					{Label: "Any fixture regardless of driver", Tag: "any"},
					{Label: "Only halogen lamps", Tag: "halogen"},
				},
			},
			{
				Key:    "q2",
				Prompt: "What can a scenario button trigger? Select all that apply.",
				Options: []Option{
					{Label: "Several modules at once", Tag: "group", Correct: true},
					{Label: "A preset brightness level", Tag: "preset", Correct: true},
					{Label: "Re-flashing of module firmware", Tag: "firmware"},
				},
			},
		},
	},
	{
		Key:       "lesson_6",
		Title:     "Lesson 6. Gateway and app control",
		StatusKey: "compleat_lesson_6",
		NoteTitle: "Lesson 6 results",
		VideoURL:  "https://video.example.com/training/lesson-6",
		Questions: []Question{
			{
				Key:    "q1",
				Prompt: "What does the gateway add to a radio installation?",
				Options: []Option{
					{Label: "App control and schedules over the internet", Tag: "app", Correct: true},
					{Label: "Extra relay channels", Tag: "channels"},
					{Label: "Higher switching current", Tag: "current"},
				},
			},
			{
				Key:    "q2",
				Prompt: "Which setups keep working if the gateway goes offline? Select all that apply.",
				Options: []Option{
					{Label: "Direct switch-to-module bindings", Tag: "direct", Correct: true},
					{Label: "Wall switch control of bound fixtures", Tag: "wall", Correct: true},
					{Label: "Cloud schedules", Tag: "cloud"},
				},
			},
		},
	},
	{
		Key:       "lesson_7",
		Title:     "Lesson 7. Commissioning and handover",
		StatusKey: "compleat_lesson_7",
		NoteTitle: "Lesson 7 results",
		VideoURL:  "https://video.example.com/training/lesson-7",
		Questions: []Question{
			{
				Key:    "q1",
				Prompt: "What must be verified before handover? Select all that apply.",
				Options: []Option{
					{Label: "Every binding from its control point", Tag: "bindings", Correct: true},
					{Label: "Range margin at the farthest switch", Tag: "range", Correct: true},
					{Label: "Paint color of the mounting boxes", Tag: "paint"},
				},
			},
			{
				Key:    "q2",
				Prompt: "What does the client receive at handover?",
				Options: []Option{
					{Label: "A binding map and usage walkthrough", Tag: "map", Correct: true},
					{Label: "The installer's radio analyzer", Tag: "analyzer"},
					{Label: "Nothing beyond the invoice", Tag: "invoice"},
				},
			},
		},
	},
}

var catalogExam = Exam{
	Questions: []ExamQuestion{
		{
			Key:    "q1",
			Prompt: "Two-room apartment, one ceiling fixture per room, each controlled from its own wall switch. Count the equipment.",
			Items:  []string{"relay module", "wireless switch", "signal repeater"},
			Expected: map[string]int{
				"relay module":    2,
				"wireless switch": 2,
				"signal repeater": 0,
			},
		},
		{
			Key:    "q2",
			Prompt: "Living room with a dimmable LED group, controlled from two entrances plus the app. Count the equipment.",
			Items:  []string{"dimming module", "wireless switch", "gateway"},
			Expected: map[string]int{
				"dimming module":  1,
				"wireless switch": 2,
				"gateway":         1,
			},
		},
		{
			Key:    "q3",
			Prompt: "Three-floor house, one lighting group per floor, switches on every floor, weak signal between floors. Count the equipment.",
			Items:  []string{"relay module", "wireless switch", "signal repeater"},
			Expected: map[string]int{
				"relay module":    3,
				"wireless switch": 3,
				"signal repeater": 2,
			},
		},
	},
}
