package strategy

// OKL bodies. Each follows the declaration generated from
// builder.ReductionParams: (input, output, entries, groups). One @outer
// iteration is one work group; consecutive @inner loops are separated by
// implicit barriers, so each tree step gets its own @inner loop.

const loadOneBody = `
		for (int item = 0; item < GROUP_SIZE; ++item; @inner) {
			const int_t i = group * GROUP_SIZE + item;
			scratch[item] = (i < entries) ? input[i] : VALUE_ZERO;
		}
`

const storeScratchBody = `
		for (int item = 0; item < GROUP_SIZE; ++item; @inner) {
			if (item == 0) {
				output[group] = scratch[0];
			}
		}
	}
}`

const sequentialTreeBody = `
		for (int alive = GROUP_SIZE / 2; alive > 0; alive /= 2) {
			for (int item = 0; item < GROUP_SIZE; ++item; @inner) {
				if (item < alive) {
					scratch[item] += scratch[item + alive];
				}
			}
		}
`

const groupHeader = `{
	for (int group = 0; group < groups; ++group; @outer) {
		@shared value_t scratch[SCRATCH_SIZE];
`

const treeInterleavedDivergent = groupHeader + loadOneBody + `
		for (int stride = 1; stride < GROUP_SIZE; stride *= 2) {
			for (int item = 0; item < GROUP_SIZE; ++item; @inner) {
				if ((item % (2 * stride)) == 0) {
					scratch[item] += scratch[item + stride];
				}
			}
		}
` + storeScratchBody

const treeInterleaved = groupHeader + loadOneBody + `
		for (int stride = 1; stride < GROUP_SIZE; stride *= 2) {
			for (int item = 0; item < GROUP_SIZE; ++item; @inner) {
				const int index = 2 * stride * item;
				if (index < GROUP_SIZE) {
					scratch[index] += scratch[index + stride];
				}
			}
		}
` + storeScratchBody

const treeSequential = groupHeader + loadOneBody + sequentialTreeBody + storeScratchBody

const treeSequentialUnrolled = groupHeader + loadOneBody + `
		for (int alive = GROUP_SIZE / 2; alive > 32; alive /= 2) {
			for (int item = 0; item < GROUP_SIZE; ++item; @inner) {
				if (item < alive) {
					scratch[item] += scratch[item + alive];
				}
			}
		}
#if GROUP_SIZE >= 64
		for (int item = 0; item < GROUP_SIZE; ++item; @inner) {
			if (item < 32) scratch[item] += scratch[item + 32];
		}
#endif
#if GROUP_SIZE >= 32
		for (int item = 0; item < GROUP_SIZE; ++item; @inner) {
			if (item < 16) scratch[item] += scratch[item + 16];
		}
#endif
#if GROUP_SIZE >= 16
		for (int item = 0; item < GROUP_SIZE; ++item; @inner) {
			if (item < 8) scratch[item] += scratch[item + 8];
		}
#endif
#if GROUP_SIZE >= 8
		for (int item = 0; item < GROUP_SIZE; ++item; @inner) {
			if (item < 4) scratch[item] += scratch[item + 4];
		}
#endif
#if GROUP_SIZE >= 4
		for (int item = 0; item < GROUP_SIZE; ++item; @inner) {
			if (item < 2) scratch[item] += scratch[item + 2];
		}
#endif
		for (int item = 0; item < GROUP_SIZE; ++item; @inner) {
			if (item < 1) scratch[item] += scratch[item + 1];
		}
` + storeScratchBody

const fixedCoalesced = groupHeader + `
		for (int item = 0; item < GROUP_SIZE; ++item; @inner) {
			value_t acc = VALUE_ZERO;
			for (int_t i = group * GROUP_SIZE + item; i < entries; i += GLOBAL_SIZE) {
				acc += input[i];
			}
			scratch[item] = acc;
		}
` + sequentialTreeBody + storeScratchBody

const fixedBlocked = groupHeader + `
		for (int item = 0; item < GROUP_SIZE; ++item; @inner) {
			const int_t chunk = (entries + GLOBAL_SIZE - 1) / GLOBAL_SIZE;
			const int_t first = (group * GROUP_SIZE + item) * chunk;
			value_t acc = VALUE_ZERO;
			for (int_t k = 0; k < chunk; ++k) {
				if (first + k < entries) {
					acc += input[first + k];
				}
			}
			scratch[item] = acc;
		}
` + sequentialTreeBody + storeScratchBody

const fixedUnrolled = groupHeader + `
		for (int item = 0; item < GROUP_SIZE; ++item; @inner) {
			value_t acc = VALUE_ZERO;
			int_t i = group * GROUP_SIZE + item;
			for (; i + 3 * GLOBAL_SIZE < entries; i += 4 * GLOBAL_SIZE) {
				acc += input[i] + input[i + GLOBAL_SIZE]
					+ input[i + 2 * GLOBAL_SIZE] + input[i + 3 * GLOBAL_SIZE];
			}
			for (; i < entries; i += GLOBAL_SIZE) {
				acc += input[i];
			}
			scratch[item] = acc;
		}
` + sequentialTreeBody + storeScratchBody

// wideLocalScratch stages one accumulator per lane, then a smaller set of
// consumers each fold LANES_SIZE / PARTIALS_SIZE neighbouring lanes before
// the tree runs over the partials.
const wideLocalScratch = `{
	for (int group = 0; group < groups; ++group; @outer) {
		@shared value_t lanes[LANES_SIZE];
		@shared value_t partials[PARTIALS_SIZE];

		for (int item = 0; item < GROUP_SIZE; ++item; @inner) {
			value_t acc = VALUE_ZERO;
			for (int_t i = group * GROUP_SIZE + item; i < entries; i += GLOBAL_SIZE) {
				acc += input[i];
			}
			lanes[item] = acc;
		}

		for (int item = 0; item < GROUP_SIZE; ++item; @inner) {
			if (item < PARTIALS_SIZE) {
				value_t acc = VALUE_ZERO;
				for (int k = 0; k < LANES_SIZE / PARTIALS_SIZE; ++k) {
					acc += lanes[item * (LANES_SIZE / PARTIALS_SIZE) + k];
				}
				partials[item] = acc;
			}
		}

		for (int alive = PARTIALS_SIZE / 2; alive > 0; alive /= 2) {
			for (int item = 0; item < GROUP_SIZE; ++item; @inner) {
				if (item < alive) {
					partials[item] += partials[item + alive];
				}
			}
		}

		for (int item = 0; item < GROUP_SIZE; ++item; @inner) {
			if (item == 0) {
				output[group] = partials[0];
			}
		}
	}
}`
