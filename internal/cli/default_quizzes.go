package cli

import "quiz-battle-service/internal/domain"

// defaultQuizzes is the built-in pool used when no Postgres database or seed file is configured.
func defaultQuizzes() []domain.Quiz {
	q := func(question string, correct int, options ...string) domain.Quiz {
		return domain.Quiz{Question: question, Options: options, CorrectIndex: correct}
	}
	return []domain.Quiz{
		q("What do you call a bear with no teeth?", 0, "A gummy bear", "A polar bear", "A teddy bear", "A brown bear"),
		q("Which room has no doors or windows?", 1, "A bathroom", "A mushroom", "A ballroom", "A bedroom"),
		q("What has keys but can't open locks?", 2, "A door", "A map", "A piano", "A safe"),
		q("What gets wetter the more it dries?", 3, "A sponge", "Rain", "A river", "A towel"),
		q("What has a neck but no head?", 0, "A bottle", "A giraffe", "A shirt", "A guitar case"),
		q("What can you catch but not throw?", 1, "A ball", "A cold", "A fish", "A bus"),
		q("What goes up but never comes down?", 2, "A kite", "A balloon", "Your age", "An elevator"),
		q("What has hands but can't clap?", 3, "A glove", "A robot", "A statue", "A clock"),
		q("What kind of tree fits in your hand?", 0, "A palm tree", "A pine tree", "A bonsai", "An oak"),
		q("Which month has 28 days?", 1, "February", "All of them", "None of them", "Only leap years"),
		q("What is full of holes but still holds water?", 2, "A net", "A bucket", "A sponge", "A sieve"),
		q("What has one eye but cannot see?", 3, "A cyclops", "A potato", "A storm", "A needle"),
		q("What building has the most stories?", 0, "A library", "A skyscraper", "A hotel", "A castle"),
		q("What runs but never walks?", 1, "A clock", "Water", "A car", "A dog"),
		q("What belongs to you but others use it more?", 2, "Your phone", "Your car", "Your name", "Your pen"),
		q("What has many teeth but can't bite?", 3, "A shark", "A saw", "A zipper", "A comb"),
		q("What word is spelled incorrectly in every dictionary?", 0, "Incorrectly", "Wrong", "Dictionary", "Misspelled"),
		q("What comes down but never goes up?", 1, "Snow", "Rain", "A feather", "An anchor"),
		q("What has a thumb and four fingers but is not alive?", 2, "A hand", "A puppet", "A glove", "A statue"),
		q("What invention lets you look right through a wall?", 3, "A mirror", "A camera", "X-ray glasses", "A window"),
	}
}
