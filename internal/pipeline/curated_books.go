package pipeline

// curatedBooks maps a genre name to a hand-picked list of "title author"
// search queries recognized as notable/acclaimed works in that genre. This
// mapping is engine data, not a classification model: books are not
// discoverable by genre id the way films and series are, so the book
// pipeline leans on a curated list instead.
var curatedBooks = map[string][]string{
	"Science Fiction": {
		"Dune Frank Herbert", "Foundation Isaac Asimov", "Neuromancer William Gibson",
		"The Martian Andy Weir", "Ender's Game Orson Scott Card", "1984 George Orwell",
		"Brave New World Aldous Huxley", "The Left Hand of Darkness Ursula K Le Guin",
		"Hyperion Dan Simmons", "Snow Crash Neal Stephenson", "Project Hail Mary Andy Weir",
		"The Three-Body Problem Liu Cixin", "Fahrenheit 451 Ray Bradbury",
	},
	"Fantasy": {
		"The Name of the Wind Patrick Rothfuss", "The Way of Kings Brandon Sanderson",
		"A Game of Thrones George R R Martin", "The Hobbit J R R Tolkien",
		"The Final Empire Brandon Sanderson", "Assassin's Apprentice Robin Hobb",
		"The Lies of Locke Lamora Scott Lynch", "The Blade Itself Joe Abercrombie",
		"Piranesi Susanna Clarke", "Circe Madeline Miller", "The House in the Cerulean Sea TJ Klune",
	},
	"Mystery": {
		"The Girl with the Dragon Tattoo Stieg Larsson", "Gone Girl Gillian Flynn",
		"In the Woods Tana French", "The Silent Patient Alex Michaelides",
		"Big Little Lies Liane Moriarty", "The Da Vinci Code Dan Brown",
		"And Then There Were None Agatha Christie", "The Girl on the Train Paula Hawkins",
		"Sharp Objects Gillian Flynn", "The Thursday Murder Club Richard Osman",
	},
	"Thriller": {
		"The Hunger Games Suzanne Collins", "The Shining Stephen King",
		"Gone Girl Gillian Flynn", "The Girl with the Dragon Tattoo Stieg Larsson",
		"The Bourne Identity Robert Ludlum", "Misery Stephen King",
		"Rebecca Daphne du Maurier", "The Silence of the Lambs Thomas Harris",
		"Dark Places Gillian Flynn", "Behind Closed Doors B A Paris",
	},
	"Classic Literature": {
		"Pride and Prejudice Jane Austen", "1984 George Orwell", "To Kill a Mockingbird Harper Lee",
		"The Great Gatsby F Scott Fitzgerald", "Jane Eyre Charlotte Bronte",
		"Wuthering Heights Emily Bronte", "Crime and Punishment Fyodor Dostoevsky",
		"Anna Karenina Leo Tolstoy", "The Count of Monte Cristo Alexandre Dumas",
		"Les Miserables Victor Hugo", "Don Quixote Miguel de Cervantes",
	},
	"Contemporary Fiction": {
		"The Kite Runner Khaled Hosseini", "A Little Life Hanya Yanagihara",
		"Normal People Sally Rooney", "Where the Crawdads Sing Delia Owens",
		"The Midnight Library Matt Haig", "Circe Madeline Miller",
		"A Man Called Ove Fredrik Backman", "Eleanor Oliphant Is Completely Fine Gail Honeyman",
		"The Seven Husbands of Evelyn Hugo Taylor Jenkins Reid", "Lessons in Chemistry Bonnie Garmus",
	},
	"Philosophy": {
		"Meditations Marcus Aurelius", "The Stranger Albert Camus",
		"Man's Search for Meaning Viktor Frankl", "Being and Nothingness Jean-Paul Sartre",
		"Thus Spoke Zarathustra Friedrich Nietzsche", "The Republic Plato",
		"Critique of Pure Reason Immanuel Kant", "The Art of War Sun Tzu",
		"Letters from a Stoic Seneca", "The Consolation of Philosophy Boethius",
	},
	"Psychology": {
		"Thinking Fast and Slow Daniel Kahneman", "The Power of Habit Charles Duhigg",
		"Atomic Habits James Clear", "The Body Keeps the Score Bessel van der Kolk",
		"Quiet Susan Cain", "Emotional Intelligence Daniel Goleman",
		"Man's Search for Meaning Viktor Frankl", "Flow Mihaly Csikszentmihalyi",
		"The Psychopath Test Jon Ronson", "Attached Amir Levine",
	},
	"Biography": {
		"Steve Jobs Walter Isaacson", "Educated Tara Westover",
		"Becoming Michelle Obama", "The Diary of a Young Girl Anne Frank",
		"Long Walk to Freedom Nelson Mandela", "Einstein His Life and Universe Walter Isaacson",
		"Born a Crime Trevor Noah", "Shoe Dog Phil Knight",
		"A Promised Land Barack Obama", "The Glass Castle Jeannette Walls",
	},
	"History": {
		"Sapiens Yuval Noah Harari", "Guns Germs and Steel Jared Diamond",
		"A People's History of the United States Howard Zinn", "The Silk Roads Peter Frankopan",
		"SPQR Mary Beard", "The Rise and Fall of the Third Reich William Shirer",
		"Team of Rivals Doris Kearns Goodwin", "1491 Charles Mann",
		"The Splendid and the Vile Erik Larson", "Stamped from the Beginning Ibram X Kendi",
	},
	"Science": {
		"A Brief History of Time Stephen Hawking", "Cosmos Carl Sagan",
		"The Selfish Gene Richard Dawkins", "Silent Spring Rachel Carson",
		"The Origin of Species Charles Darwin", "Astrophysics for People in a Hurry Neil deGrasse Tyson",
		"The Immortal Life of Henrietta Lacks Rebecca Skloot", "Why We Sleep Matthew Walker",
		"The Gene Siddhartha Mukherjee", "Sapiens Yuval Noah Harari",
	},
	"Horror": {
		"It Stephen King", "The Shining Stephen King", "Dracula Bram Stoker",
		"Frankenstein Mary Shelley", "House of Leaves Mark Z Danielewski",
		"The Haunting of Hill House Shirley Jackson", "Pet Sematary Stephen King",
		"Mexican Gothic Silvia Moreno-Garcia", "The Exorcist William Peter Blatty",
		"Bird Box Josh Malerman", "Hell House Richard Matheson",
	},
}

// curatedBookGenres returns the curated map's genre names in a fixed,
// stable order (Go map iteration order is randomized) so two runs over the
// same inputs admit candidates identically.
var curatedBookGenres = []string{
	"Science Fiction", "Fantasy", "Mystery", "Thriller", "Classic Literature",
	"Contemporary Fiction", "Philosophy", "Psychology", "Biography", "History",
	"Science", "Horror",
}
