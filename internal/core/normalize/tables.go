package normalize

import "pantry-scanner/internal/core/product"

// translations 英文標籤到俄文正規名稱（鍵為小寫）
var translations = map[string]string{
	// 乳製品
	"milk":           "Молоко",
	"cheese":         "Сыр",
	"butter":         "Масло сливочное",
	"yogurt":         "Йогурт",
	"yoghurt":        "Йогурт",
	"kefir":          "Кефир",
	"sour cream":     "Сметана",
	"cottage cheese": "Творог",
	"cream":          "Сливки",
	"dairy":          "Молочные продукты",
	"dairy product":  "Молочные продукты",
	// 蛋
	"egg":  "Яйца",
	"eggs": "Яйца",
	// 肉類
	"meat":        "Мясо",
	"beef":        "Говядина",
	"pork":        "Свинина",
	"chicken":     "Курица",
	"turkey":      "Индейка",
	"lamb":        "Баранина",
	"sausage":     "Колбаса",
	"ham":         "Ветчина",
	"bacon":       "Бекон",
	"minced meat": "Фарш",
	"red meat":    "Мясо",
	// 魚類
	"fish":    "Рыба",
	"salmon":  "Лосось",
	"tuna":    "Тунец",
	"herring": "Сельдь",
	"shrimp":  "Креветки",
	"seafood": "Морепродукты",
	"caviar":  "Икра",
	// 蔬菜
	"tomato":      "Помидор",
	"cucumber":    "Огурец",
	"potato":      "Картофель",
	"carrot":      "Морковь",
	"onion":       "Лук",
	"garlic":      "Чеснок",
	"cabbage":     "Капуста",
	"bell pepper": "Перец болгарский",
	"pepper":      "Перец",
	"lettuce":     "Салат",
	"broccoli":    "Брокколи",
	"cauliflower": "Цветная капуста",
	"zucchini":    "Кабачок",
	"eggplant":    "Баклажан",
	"pumpkin":     "Тыква",
	"beet":        "Свекла",
	"radish":      "Редис",
	"corn":        "Кукуруза",
	"peas":        "Горошек",
	"mushroom":    "Грибы",
	"spinach":     "Шпинат",
	"avocado":     "Авокадо",
	// 水果
	"apple":       "Яблоко",
	"banana":      "Банан",
	"orange":      "Апельсин",
	"tangerine":   "Мандарин",
	"mandarin":    "Мандарин",
	"lemon":       "Лимон",
	"lime":        "Лайм",
	"grape":       "Виноград",
	"pear":        "Груша",
	"peach":       "Персик",
	"apricot":     "Абрикос",
	"plum":        "Слива",
	"cherry":      "Вишня",
	"strawberry":  "Клубника",
	"raspberry":   "Малина",
	"blueberry":   "Черника",
	"watermelon":  "Арбуз",
	"melon":       "Дыня",
	"pineapple":   "Ананас",
	"mango":       "Манго",
	"kiwi":        "Киви",
	"kiwifruit":   "Киви",
	"pomegranate": "Гранат",
	"grapefruit":  "Грейпфрут",
	// 麵包
	"bread":       "Хлеб",
	"baguette":    "Багет",
	"bun":         "Булочка",
	"croissant":   "Круассан",
	"loaf":        "Батон",
	"baked goods": "Выпечка",
	"pastry":      "Выпечка",
	// 穀物
	"rice":      "Рис",
	"buckwheat": "Гречка",
	"oatmeal":   "Овсянка",
	"oats":      "Овсянка",
	"pasta":     "Макароны",
	"spaghetti": "Спагетти",
	"flour":     "Мука",
	"cereal":    "Хлопья",
	"noodle":    "Лапша",
	// 飲料
	"juice":         "Сок",
	"orange juice":  "Апельсиновый сок",
	"water":         "Вода",
	"mineral water": "Минеральная вода",
	"coffee":        "Кофе",
	"tea":           "Чай",
	"soda":          "Газировка",
	"lemonade":      "Лимонад",
	"beer":          "Пиво",
	"wine":          "Вино",
	// 甜食
	"chocolate":   "Шоколад",
	"candy":       "Конфеты",
	"cookie":      "Печенье",
	"cake":        "Торт",
	"honey":       "Мёд",
	"jam":         "Варенье",
	"ice cream":   "Мороженое",
	"marshmallow": "Зефир",
	"sugar":       "Сахар",
	// 罐頭
	"canned food": "Консервы",
	"canned fish": "Рыбные консервы",
	// 香料
	"salt":          "Соль",
	"black pepper":  "Перец черный",
	"cinnamon":      "Корица",
	"basil":         "Базилик",
	"dill":          "Укроп",
	"parsley":       "Петрушка",
	"ketchup":       "Кетчуп",
	"mayonnaise":    "Майонез",
	"mustard":       "Горчица",
	"olive oil":     "Оливковое масло",
	"sunflower oil": "Подсолнечное масло",
	"nuts":          "Орехи",
	"walnut":        "Грецкий орех",
}

// foodKeywords 食物相關關鍵字，西里爾字母者為詞幹
var foodKeywords = []string{
	"food", "fruit", "vegetable", "berry", "berries", "meat", "fish", "seafood",
	"dairy", "milk", "cheese", "bread", "baked", "pastry", "grain",
	"cereal", "juice", "drink", "beverage", "snack", "sweet", "dessert", "candy",
	"chocolate", "nut", "spice", "herb", "sauce", "egg", "produce", "citrus",
	"melon", "apple", "tomato", "pepper", "bean", "pasta", "noodle", "rice",
	"sausage", "coffee", "tea", "yogurt", "cream", "butter", "oil", "banana",
	"orange", "lemon", "grape", "potato", "carrot", "onion", "cucumber", "cabbage",
	"pear", "peach", "cherry", "chicken", "beef", "pork", "bakery",
	"молок", "сыр", "мяс", "рыб", "хлеб", "фрукт", "овощ", "ягод", "сок",
	"напит", "конфет", "шоколад", "круп", "яйц", "колбас", "печен", "консерв",
	"специ", "кофе", "чай", "масло", "йогурт", "кефир", "творог",
}

// nonFood 出現這些詞就排除（整詞比對）
var nonFood = map[string]struct{}{
	"table": {}, "tableware": {}, "plate": {}, "dishware": {}, "bowl": {}, "cup": {},
	"mug": {}, "kitchen": {}, "countertop": {}, "furniture": {}, "wood": {},
	"person": {}, "hand": {}, "finger": {}, "people": {}, "bottle": {}, "box": {},
	"bag": {}, "label": {}, "font": {}, "logo": {}, "text": {}, "brand": {},
	"paper": {}, "cardboard": {}, "shelf": {}, "refrigerator": {}, "fridge": {},
	"cutlery": {}, "spoon": {}, "fork": {}, "knife": {}, "glass": {}, "jar": {},
	"tin": {}, "rectangle": {}, "circle": {}, "pattern": {}, "art": {}, "still": {},
	"photography": {}, "stock": {}, "illustration": {}, "macro": {}, "close-up": {},
	"tray": {}, "basket": {}, "price": {}, "receipt": {}, "napkin": {}, "tablecloth": {}, "recipe": {},
	"foil": {},
	"стол": {}, "тарелка": {}, "упаковка": {}, "пакет": {}, "коробка": {}, "бутылка": {},
}

// genericTerms 太籠統的標籤（整串比對）
var genericTerms = map[string]struct{}{
	"food": {}, "foods": {}, "natural foods": {}, "whole food": {}, "local food": {},
	"superfood": {}, "vegan nutrition": {}, "produce": {}, "ingredient": {},
	"ingredients": {}, "dish": {}, "cuisine": {}, "meal": {}, "recipe": {},
	"container": {}, "packaging": {}, "packaging and labeling": {}, "package": {},
	"product": {}, "products": {}, "grocery": {}, "groceries": {}, "fruit": {},
	"fruits": {}, "vegetable": {}, "vegetables": {}, "plant": {}, "staple food": {},
	"comfort food": {}, "fast food": {}, "junk food": {}, "finger food": {},
	"еда": {}, "продукт": {}, "продукты": {}, "ингредиент": {}, "блюдо": {},
	"фрукты": {}, "овощи": {}, "упаковка": {},
}

// categoryRule 分類與代表性子字串
type categoryRule struct {
	category   product.Category
	substrings []string
}

// categoryRules 依序比對詞首，第一個命中者勝出
var categoryRules = []categoryRule{
	{product.CategoryFrozen, []string{"заморож", "мороженое", "пельмен", "вареник", "frozen", "ice cream"}},
	{product.CategoryCanned, []string{"консерв", "тушенк", "шпрот", "canned"}},
	{product.CategoryEggs, []string{"яйц", "яйко", "egg"}},
	{product.CategoryDairy, []string{"молок", "молоч", "сыр", "творог", "кефир", "йогурт", "сметан", "сливк", "сливоч", "ряженк", "milk", "cheese", "yogurt", "butter", "dairy"}},
	{product.CategoryMeat, []string{"мяс", "говяд", "свин", "куриц", "курин", "индейк", "баран", "фарш", "колбас", "сосиск", "ветчин", "бекон", "meat", "beef", "pork", "chicken", "sausage", "bacon"}},
	{product.CategoryFish, []string{"рыб", "лосос", "семг", "тунец", "сельдь", "сельди", "креветк", "икра", "морепродукт", "fish", "salmon", "tuna", "shrimp", "seafood"}},
	{product.CategoryBeverages, []string{"сок", "вода", "кофе", "чай", "газировк", "лимонад", "пиво", "напит", "juice", "water", "coffee", "drink", "beverage"}},
	{product.CategoryVegetables, []string{"помидор", "томат", "огур", "картоф", "морков", "лук", "чеснок", "капуст", "перец болгар", "салат", "брокколи", "кабач", "баклажан", "тыкв", "свекл", "редис", "кукуруз", "горош", "фасол", "гриб", "шпинат", "авокадо", "tomato", "cucumber", "potato", "carrot", "onion", "cabbage", "vegetable"}},
	{product.CategoryFruits, []string{"яблок", "банан", "апельсин", "мандарин", "лимон", "лайм", "виноград", "груш", "персик", "абрикос", "слив", "вишн", "клубник", "малин", "черник", "арбуз", "дын", "ананас", "манго", "киви", "гранат", "грейпфрут", "apple", "banana", "orange", "lemon", "grape", "berry", "fruit"}},
	{product.CategoryBakery, []string{"хлеб", "батон", "багет", "булоч", "круассан", "выпечк", "лаваш", "bread", "bakery", "bun", "croissant"}},
	{product.CategoryGrains, []string{"рис", "греч", "овсян", "макарон", "спагетти", "мук", "хлопь", "лапш", "круп", "пшен", "rice", "pasta", "flour", "cereal", "oat", "noodle"}},
	{product.CategorySweets, []string{"шоколад", "конфет", "печенье", "печенья", "торт", "мёд", "мед", "варень", "зефир", "сахар", "пряник", "вафл", "chocolate", "candy", "cookie", "cake", "honey", "sugar"}},
	{product.CategorySpices, []string{"соль", "перец", "корица", "базилик", "укроп", "петрушк", "кетчуп", "майонез", "горчиц", "масло", "орех", "специ", "salt", "spice", "cinnamon", "herb", "oil"}},
}

// stemVocabulary 以詞幹比對的補充詞彙，涵蓋各種詞形
var stemVocabulary = map[product.Category][]string{
	product.CategoryDairy:      {"простокваша", "ацидофилин", "сырок", "масло"},
	product.CategoryMeat:       {"утка", "кролик", "печень", "говядина", "телятина", "грудка", "окорок"},
	product.CategoryFish:       {"минтай", "треска", "скумбрия", "кальмар", "мидии", "форель", "сёмга"},
	product.CategoryVegetables: {"руккола", "сельдерей", "спаржа", "фасоль", "чечевица", "редька", "репа"},
	product.CategoryFruits:     {"хурма", "черешня", "смородина", "крыжовник", "инжир", "финик", "нектарин"},
	product.CategoryBakery:     {"пирог", "пирожок", "бублик", "сушка", "лепёшка"},
	product.CategoryGrains:     {"гречка", "булгур", "кускус", "киноа", "перловка", "манка"},
	product.CategoryBeverages:  {"вино", "квас", "компот", "морс", "какао", "кисель"},
	product.CategorySweets:     {"мармелад", "халва", "пастила", "ирис", "леденец"},
	product.CategorySpices:     {"паприка", "куркума", "имбирь", "гвоздика", "ваниль"},
}

// synonymGroups 對稱的同義詞組，同組名稱視為同一商品
var synonymGroups = [][]string{
	{"помидор", "помидоры", "томат", "томаты", "tomato", "tomatoes"},
	{"огурец", "огурцы", "cucumber", "cucumbers"},
	{"картофель", "картошка", "potato", "potatoes"},
	{"яйца", "яйцо", "egg", "eggs"},
	{"молоко", "milk"},
	{"сыр", "cheese"},
	{"хлеб", "bread"},
	{"батон", "loaf"},
	{"курица", "куриное мясо", "chicken"},
	{"говядина", "beef"},
	{"свинина", "pork"},
	{"яблоко", "яблоки", "apple", "apples"},
	{"банан", "бананы", "banana", "bananas"},
	{"апельсин", "апельсины", "orange", "oranges"},
	{"мандарин", "мандарины", "tangerine", "mandarin"},
	{"морковь", "морковка", "carrot", "carrots"},
	{"лук", "лук репчатый", "onion"},
	{"перец", "перец болгарский", "bell pepper"},
	{"грибы", "шампиньоны", "mushroom", "mushrooms"},
	{"киви", "kiwi", "kiwifruit"},
	{"йогурт", "yogurt", "yoghurt"},
	{"шоколад", "chocolate"},
	{"кофе", "coffee"},
	{"гречка", "гречневая крупа", "buckwheat"},
	{"овсянка", "овсяные хлопья", "oatmeal", "oats"},
}
